package handlers

import (
	applog "gitshop/internal/log"
	"gitshop/internal/services"
	"gitshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
}

// GET /store/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cart, err := h.Cart.Get(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return c.JSON(cart)
}

// POST /store/cart/add
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req services.AddItem
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	id, ok := validate.ID(req.ProductID)
	if !ok {
		return badRequest(c, "product_id", "invalid product id")
	}
	req.ProductID = id
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Price != nil && !validate.Price(*req.Price) {
		return badRequest(c, "price", "invalid price")
	}
	cart, err := h.Cart.Add(c.UserContext(), currentUser(c).ID, req)
	if err != nil {
		return fail(c, "cart.add", err)
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": id, "qty": req.Quantity})
	return c.JSON(cart)
}

// PUT /store/cart/items/:product_id
func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("product_id"))
	if !ok {
		return badRequest(c, "product_id", "invalid product id")
	}
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil || req.Quantity == nil {
		return badRequest(c, "quantity", "quantity is required")
	}
	cart, err := h.Cart.UpdateQuantity(c.UserContext(), currentUser(c).ID, id, *req.Quantity)
	if err != nil {
		return fail(c, "cart.update", err)
	}
	return c.JSON(cart)
}

// DELETE /store/cart/items/:product_id
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("product_id"))
	if !ok {
		return badRequest(c, "product_id", "invalid product id")
	}
	cart, err := h.Cart.Remove(c.UserContext(), currentUser(c).ID, id)
	if err != nil {
		return fail(c, "cart.remove", err)
	}
	return c.JSON(cart)
}
