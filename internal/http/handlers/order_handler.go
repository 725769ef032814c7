package handlers

import (
	"context"
	"strconv"
	"strings"

	"gitshop/internal/domain"
	applog "gitshop/internal/log"
	"gitshop/internal/redisx"
	"gitshop/internal/services"
	"gitshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// IdempotencyStore is satisfied by *redisx.Idempotency.
type IdempotencyStore interface {
	Claim(ctx context.Context, userID, key string) (redisx.Claim, string, error)
	Complete(ctx context.Context, userID, key, orderID string) error
	Abort(ctx context.Context, userID, key string) error
}

type OrderHandler struct {
	Order *services.OrderService
	Idem  IdempotencyStore
}

// POST /store/orders/checkout
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	u := currentUser(c)
	ctx := c.UserContext()

	key := strings.TrimSpace(c.Get("Idempotency-Key"))
	if len(key) > 128 {
		return badRequest(c, "idempotency_key", "Idempotency-Key too long")
	}
	claimed := false
	if key != "" && h.Idem != nil {
		claim, orderID, err := h.Idem.Claim(ctx, u.ID, key)
		switch {
		case err != nil:
			applog.Error(c, "checkout.idempotency.fail", err, nil)
		case claim == redisx.ClaimPending:
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "a checkout with this Idempotency-Key is already in progress"})
		case claim == redisx.ClaimDone:
			o, err := h.Order.GetOrder(ctx, orderID)
			if err != nil {
				return fail(c, "checkout.replay", err)
			}
			applog.Info(c, "checkout.replay", map[string]any{"order_id": o.ID})
			c.Set("Idempotent-Replayed", "true")
			return c.JSON(o)
		default:
			claimed = true
		}
	}

	o, err := h.Order.Checkout(ctx, u.ID)
	if err != nil {
		if claimed {
			if aerr := h.Idem.Abort(ctx, u.ID, key); aerr != nil {
				applog.Error(c, "checkout.idempotency.abort.fail", aerr, nil)
			}
		}
		applog.Security(c, "checkout.fail", map[string]any{"reason": err.Error()})
		return fail(c, "checkout", err)
	}
	if claimed {
		if err := h.Idem.Complete(ctx, u.ID, key, o.ID); err != nil {
			applog.Error(c, "checkout.idempotency.complete.fail", err, map[string]any{"order_id": o.ID})
		}
	}
	applog.Audit(c, "checkout.success", map[string]any{
		"order_id": o.ID,
		"total":    o.TotalAmount.StringFixed(2),
		"items":    len(o.Items),
	})
	return c.Status(fiber.StatusCreated).JSON(o)
}

// GET /store/orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	orders, err := h.Order.ListUserOrders(c.UserContext(), currentUser(c).ID, validate.Page(c.Query("page")), limit)
	if err != nil {
		return fail(c, "orders.history", err)
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return c.JSON(orders)
}

// GET /store/orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order", "invalid order id")
	}
	o, err := h.Order.ViewOrder(c.UserContext(), id, currentUser(c))
	if err != nil {
		return fail(c, "orders.view", err)
	}
	return c.JSON(o)
}

// GET /store/orders/:id/invoice
func (h *OrderHandler) Invoice(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order", "invalid order id")
	}
	rc, inv, err := h.Order.OpenInvoiceDocument(c.UserContext(), id, currentUser(c))
	if err != nil {
		return fail(c, "orders.invoice", err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="invoice-`+inv.ID+`.pdf"`)
	applog.Audit(c, "orders.invoice.download", map[string]any{"order_id": id, "invoice_id": inv.ID})
	// fasthttp closes rc once the body is written
	return c.SendStream(rc)
}

// GET /store/merchant/orders
func (h *OrderHandler) Merchant(c *fiber.Ctx) error {
	orders, err := h.Order.MerchantOrders(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "merchant.orders", err)
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return c.JSON(orders)
}

// PUT /store/merchant/orders/:id/items/:product_id/status
func (h *OrderHandler) UpdateItemStatus(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order", "invalid order id")
	}
	pid, ok := validate.ID(c.Params("product_id"))
	if !ok {
		return badRequest(c, "product_id", "invalid product id")
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		return badRequest(c, "status", "status is required")
	}
	u := currentUser(c)
	o, err := h.Order.UpdateItemStatus(c.UserContext(), oid, pid, u.ID, req.Status)
	if err != nil {
		return fail(c, "merchant.item_status", err)
	}
	applog.Audit(c, "merchant.item_status", map[string]any{
		"order_id":     oid,
		"product_id":   pid,
		"status":       req.Status,
		"order_status": string(o.Status),
	})
	return c.JSON(o)
}
