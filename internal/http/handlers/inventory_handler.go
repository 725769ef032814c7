package handlers

import (
	applog "gitshop/internal/log"
	"gitshop/internal/services"
	"gitshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

type adjustRequest struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
}

// GET /inventory/:product_id
func (h *InventoryHandler) Stock(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("product_id"))
	if !ok {
		return badRequest(c, "product_id", "invalid product id")
	}
	qty, err := h.Inv.Stock(c.UserContext(), id)
	if err != nil {
		return fail(c, "inventory.stock", err)
	}
	return c.JSON(fiber.Map{"product_id": id, "stock": qty})
}

// GET /inventory/:product_id/availability
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("product_id"))
	if !ok {
		return badRequest(c, "product_id", "invalid product id")
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), id)
	if err != nil {
		return fail(c, "inventory.availability", err)
	}
	return c.JSON(avail)
}

// POST /inventory/adjust
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	id, ok := validate.ID(req.ProductID)
	if !ok {
		return badRequest(c, "product_id", "invalid product id")
	}
	if req.Delta == 0 {
		return badRequest(c, "delta", "delta must be non-zero")
	}
	qty, err := h.Inv.Adjust(c.UserContext(), services.Adjustment{
		ProductID: id,
		Delta:     req.Delta,
		Reason:    req.Reason,
		Author:    currentUser(c),
	})
	if err != nil {
		return fail(c, "inventory.adjust", err)
	}
	applog.Audit(c, "inventory.adjust", map[string]any{"product_id": id, "delta": req.Delta, "stock": qty})
	return c.JSON(fiber.Map{"product_id": id, "stock": qty})
}
