package handlers

import (
	"strings"

	"gitshop/internal/domain"
	applog "gitshop/internal/log"
	"gitshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// token reads the session id from the sid cookie or a Bearer header.
func token(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return c.Cookies("sid")
}

func hasBearer(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderAuthorization)), "bearer ")
}

// RequireUser resolves the session and stores the user in Locals("user").
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := token(c)
		if sid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": domain.ErrUnauthenticated.Error()})
		}
		u, err := auth.CurrentUser(c.UserContext(), sid)
		if err != nil || u == nil {
			applog.Security(c, "auth.session.invalid", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": domain.ErrUnauthenticated.Error()})
		}
		c.Locals("user", u)
		c.Locals("user_id", u.ID)
		return c.Next()
	}
}

// RequireRole must run after RequireUser.
func RequireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		for _, r := range roles {
			if u.Is(r) {
				return c.Next()
			}
		}
		fields := map[string]any{"path": c.Path()}
		if u != nil {
			fields["role"] = string(u.Role)
		}
		applog.Security(c, "access.denied.role", fields)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": domain.ErrForbidden.Error()})
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
