package handlers

import (
	"time"

	applog "gitshop/internal/log"
	"gitshop/internal/services"
	"gitshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func setSID(c *fiber.Ctx, sid string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // enable true behind TLS
		Expires:  expires,
	})
}

// POST /auth/signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var in services.Signup
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return badRequest(c, "email", "invalid email")
	}
	if !validate.Password(in.Password) {
		return badRequest(c, "password", "password must be 8-64 characters with upper, lower, digit and symbol")
	}
	name, ok := validate.Name(in.FullName)
	if !ok {
		return badRequest(c, "full_name", "full name is required")
	}
	in.Email, in.FullName = email, name
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		applog.Security(c, "auth.signup.fail", map[string]any{"email": email, "reason": err.Error()})
		return fail(c, "auth.signup", err)
	}
	applog.Audit(c, "auth.signup", map[string]any{"user_id": u.ID, "role": string(u.Role)})
	return c.Status(fiber.StatusCreated).JSON(u)
}

// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	u, sid, err := h.Auth.Login(c.UserContext(), email, in.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	setSID(c, sid, time.Now().Add(h.Auth.SessionTTL))
	c.Locals("user_id", u.ID)
	applog.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(fiber.Map{"token": sid, "user": u})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := token(c); sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			applog.Error(c, "auth.logout.fail", err, nil)
		}
	}
	setSID(c, "", time.Now().Add(-1*time.Hour))
	applog.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

// PUT /auth/me
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	var p services.Profile
	if err := c.BodyParser(&p); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	if p.FullName != "" {
		name, ok := validate.Name(p.FullName)
		if !ok {
			return badRequest(c, "full_name", "full name too long")
		}
		p.FullName = name
	}
	u, err := h.Auth.UpdateProfile(c.UserContext(), currentUser(c), p)
	if err != nil {
		return fail(c, "auth.profile", err)
	}
	applog.Audit(c, "auth.profile.update", nil)
	return c.JSON(u)
}

// DELETE /auth/me
func (h *AuthHandler) DeleteMe(c *fiber.Ctx) error {
	u := currentUser(c)
	if err := h.Auth.DeleteAccount(c.UserContext(), u.ID); err != nil {
		return fail(c, "auth.delete", err)
	}
	setSID(c, "", time.Now().Add(-1*time.Hour))
	applog.Audit(c, "auth.account.delete", map[string]any{"user_id": u.ID})
	return c.SendStatus(fiber.StatusNoContent)
}
