package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrOrderNotFound   = errors.New("order not found")
	ErrItemNotFound    = errors.New("item not found or not authorized")
	ErrForbidden       = errors.New("not authorized")
	ErrUnauthenticated = errors.New("authentication required")
	ErrBadCreds        = errors.New("invalid email or password")
	ErrEmailTaken      = errors.New("email already registered")
	ErrNotPurchased    = errors.New("please buy the product to give review")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError names the product and the quantity that was actually available.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %s. Available: %d", name, e.Available)
}

type InvalidStatusError struct {
	Status string
	Reason string
}

func (e *InvalidStatusError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid status %q", e.Status)
	}
	return fmt.Sprintf("invalid status %q: %s", e.Status, e.Reason)
}
