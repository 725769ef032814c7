package handlers

import (
	"strconv"

	"gitshop/internal/domain"
	"gitshop/internal/services"
	"gitshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	OrderSvc *services.OrderService
	Inv      *services.InventoryService
	Auth     *services.AuthService
}

// GET /admin/orders
func (h *AdminHandler) Orders(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 100
	}
	ords, err := h.OrderSvc.LatestOrders(c.UserContext(), limit)
	if err != nil {
		return fail(c, "admin.orders.list", err)
	}
	if ords == nil {
		ords = []*domain.Order{}
	}
	return c.JSON(ords)
}

// GET /admin/inventory?product_id=
func (h *AdminHandler) Inventory(c *fiber.Ctx) error {
	pid := c.Query("product_id")
	if pid != "" {
		var ok bool
		if pid, ok = validate.ID(pid); !ok {
			return badRequest(c, "product_id", "invalid product id")
		}
	}
	rows, err := h.Inv.ListStock(c.UserContext())
	if err != nil {
		return fail(c, "admin.inventory.list", err)
	}
	adj, err := h.Inv.RecentAdjustments(c.UserContext(), pid, 25)
	if err != nil {
		return fail(c, "admin.inventory.adjustments", err)
	}
	return c.JSON(fiber.Map{"stock": rows, "adjustments": adj})
}

// GET /admin/users
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	users, err := h.Auth.ListUsers(c.UserContext())
	if err != nil {
		return fail(c, "admin.users.list", err)
	}
	return c.JSON(users)
}
