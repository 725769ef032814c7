package handlers

import (
	"errors"

	"gitshop/internal/documents"
	"gitshop/internal/domain"
	applog "gitshop/internal/log"
	"gitshop/internal/repos"

	"github.com/gofiber/fiber/v2"
)

const friendlyError = "Something went wrong. Please try again."

// fail maps a service error onto a status code and JSON body. Unknown errors
// are logged under action+".fail" and never echoed to the client.
func fail(c *fiber.Ctx, action string, err error) error {
	var (
		stock    *domain.InsufficientStockError
		missing  *domain.ProductNotFoundError
		badState *domain.InvalidStatusError
	)
	switch {
	case errors.As(err, &stock):
		applog.Info(c, action+".rejected", map[string]any{"product_id": stock.ProductID, "available": stock.Available})
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      stock.Error(),
			"product_id": stock.ProductID,
			"available":  stock.Available,
		})
	case errors.As(err, &missing):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": missing.Error(), "product_id": missing.ProductID})
	case errors.As(err, &badState):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": badState.Error(), "status": badState.Status})
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrNotPurchased):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, repos.ErrInvoiceNotFound),
		errors.Is(err, documents.ErrNotFound),
		errors.Is(err, documents.ErrBadLocator):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invoice PDF not found"})
	case errors.Is(err, domain.ErrForbidden):
		applog.Security(c, "access.denied", map[string]any{"action": action})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrBadCreds):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	applog.Error(c, action+".fail", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": friendlyError})
}

func badRequest(c *fiber.Ctx, field, msg string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// ErrorHandler is the app-level fallback for errors returned by handlers and
// middleware. Client errors keep their message; server errors are masked.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code < fiber.StatusInternalServerError {
		return c.Status(code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(code).JSON(fiber.Map{"error": friendlyError})
}
