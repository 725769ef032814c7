package handlers

import (
	"time"

	"gitshop/internal/domain"
	applog "gitshop/internal/log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// CSRF checks the X-Csrf-Token header against the csrf_ cookie. Bearer
// clients carry no ambient credentials and are skipped.
func CSRF() fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "header:X-Csrf-Token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next:           hasBearer,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Security check failed. Please refresh and try again."})
		},
	})
}

func loginLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
		},
	})
}

// checkoutLimiter keys on the authenticated user, so it must follow RequireUser.
func checkoutLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := c.Locals("user_id").(string); ok {
				return id + "|checkout"
			}
			return c.IP() + "|checkout"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.checkout.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
}

// Mount registers the JSON API under /api/v1.
func Mount(app *fiber.App, d *Deps) {
	api := app.Group("/api/v1")
	user := RequireUser(d.AuthSvc)
	sellers := RequireRole(domain.RoleSeller, domain.RoleAdmin)

	auth := api.Group("/auth")
	auth.Post("/signup", d.AuthHandler.Signup)
	auth.Post("/login", loginLimiter(), d.AuthHandler.Login)
	auth.Post("/logout", d.AuthHandler.Logout)
	auth.Get("/me", user, d.AuthHandler.Me)
	auth.Put("/me", user, d.AuthHandler.UpdateMe)
	auth.Delete("/me", user, d.AuthHandler.DeleteMe)

	products := api.Group("/products")
	products.Get("/", d.ProductHandler.List)
	products.Get("/categories", d.ProductHandler.Categories)
	products.Get("/search", d.ProductHandler.Search)
	products.Get("/details/:id", d.ProductHandler.Detail)
	products.Post("/", user, sellers, d.ProductHandler.Create)
	products.Put("/:id", user, sellers, d.ProductHandler.Update)
	products.Delete("/:id", user, sellers, d.ProductHandler.Delete)

	inv := api.Group("/inventory")
	inv.Get("/:product_id", d.InventoryHandler.Stock)
	inv.Get("/:product_id/availability", d.InventoryHandler.Check)
	inv.Post("/adjust", user, sellers, d.InventoryHandler.Adjust)

	store := api.Group("/store", user)
	store.Get("/cart", d.CartHandler.View)
	store.Post("/cart/add", d.CartHandler.Add)
	store.Put("/cart/items/:product_id", d.CartHandler.Update)
	store.Delete("/cart/items/:product_id", d.CartHandler.Remove)
	store.Post("/orders/checkout", checkoutLimiter(), d.OrderHandler.Checkout)
	store.Get("/orders", d.OrderHandler.History)
	store.Get("/orders/:id", d.OrderHandler.View)
	store.Get("/orders/:id/invoice", d.OrderHandler.Invoice)
	store.Get("/merchant/orders", RequireRole(domain.RoleSeller), d.OrderHandler.Merchant)
	store.Put("/merchant/orders/:id/items/:product_id/status", RequireRole(domain.RoleSeller), d.OrderHandler.UpdateItemStatus)

	reviews := api.Group("/reviews")
	reviews.Post("/", user, d.ReviewHandler.Submit)
	reviews.Get("/:product_id", d.ReviewHandler.List)

	admin := api.Group("/admin", user, RequireRole(domain.RoleAdmin))
	admin.Get("/orders", d.AdminHandler.Orders)
	admin.Get("/inventory", d.AdminHandler.Inventory)
	admin.Get("/users", d.AdminHandler.Users)
}
