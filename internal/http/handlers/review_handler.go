package handlers

import (
	"gitshop/internal/domain"
	applog "gitshop/internal/log"
	"gitshop/internal/services"
	"gitshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

// POST /reviews
func (h *ReviewHandler) Submit(c *fiber.Ctx) error {
	var in services.ReviewInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	id, ok := validate.ID(in.ProductID)
	if !ok {
		return badRequest(c, "product_id", "invalid product id")
	}
	in.ProductID = id
	if !validate.Rating(in.Rating) {
		return badRequest(c, "rating", "rating must be between 1 and 5")
	}
	if len(in.Comment) > 2000 {
		return badRequest(c, "comment", "comment too long")
	}
	r, err := h.Reviews.Submit(c.UserContext(), currentUser(c), in)
	if err != nil {
		return fail(c, "reviews.submit", err)
	}
	applog.Audit(c, "reviews.submit", map[string]any{"product_id": id, "rating": in.Rating})
	return c.Status(fiber.StatusCreated).JSON(r)
}

// GET /reviews/:product_id
func (h *ReviewHandler) List(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("product_id"))
	if !ok {
		return badRequest(c, "product_id", "invalid product id")
	}
	rs, err := h.Reviews.ForProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "reviews.list", err)
	}
	if rs == nil {
		rs = []domain.Review{}
	}
	return c.JSON(rs)
}
