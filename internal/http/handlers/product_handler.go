package handlers

import (
	"strconv"
	"strings"

	applog "gitshop/internal/log"
	"gitshop/internal/services"
	"gitshop/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func pageSize(c *fiber.Ctx, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

// GET /products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Catalog.ListProducts(c.UserContext(), validate.Page(c.Query("page")), pageSize(c, "page_size"))
	if err != nil {
		return fail(c, "products.list", err)
	}
	return c.JSON(ps)
}

// GET /products/categories
func (h *ProductHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "categories.list", err)
	}
	return c.JSON(cats)
}

// GET /products/search?q=&category=
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	var q string
	if raw := c.Query("q"); strings.TrimSpace(raw) != "" {
		var ok bool
		if q, ok = validate.Q(raw); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "q", "value": raw})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Enter a valid keyword (letters/numbers only)"})
		}
	}
	category := strings.TrimSpace(c.Query("category"))
	if category != "" {
		var ok bool
		if category, ok = validate.Category(category); !ok {
			return badRequest(c, "category", "invalid category")
		}
	}
	ps, err := h.Catalog.Search(c.UserContext(), q, category, validate.Page(c.Query("page")), pageSize(c, "page_size"))
	if err != nil {
		return fail(c, "search", err)
	}
	return c.JSON(fiber.Map{"q": q, "category": category, "count": len(ps), "products": ps})
}

// GET /products/details/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product", "invalid product id")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "products.detail", err)
	}
	return c.JSON(p)
}

// input parses and validates the body. On failure the field and message are returned.
func (h *ProductHandler) input(c *fiber.Ctx, in *services.ProductInput) (field, msg string) {
	if err := c.BodyParser(in); err != nil {
		return "body", "invalid request body"
	}
	name, ok := validate.Name(in.Name)
	if !ok {
		return "name", "name is required"
	}
	in.Name = name
	if !validate.Price(in.Price) {
		return "price", "price must be positive with at most two decimals"
	}
	if in.Category, ok = validate.Category(in.Category); !ok {
		return "category", "invalid category"
	}
	return "", ""
}

// POST /products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if field, msg := h.input(c, &in); field != "" {
		return badRequest(c, field, msg)
	}
	p, err := h.Catalog.Create(c.UserContext(), currentUser(c), in)
	if err != nil {
		return fail(c, "products.create", err)
	}
	applog.Audit(c, "products.create", map[string]any{"product_id": p.ID, "stock": p.Stock})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// PUT /products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product", "invalid product id")
	}
	var in services.ProductInput
	if field, msg := h.input(c, &in); field != "" {
		return badRequest(c, field, msg)
	}
	p, err := h.Catalog.Update(c.UserContext(), currentUser(c), id, in)
	if err != nil {
		return fail(c, "products.update", err)
	}
	applog.Audit(c, "products.update", map[string]any{"product_id": id})
	return c.JSON(p)
}

// DELETE /products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product", "invalid product id")
	}
	if err := h.Catalog.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return fail(c, "products.delete", err)
	}
	applog.Audit(c, "products.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
