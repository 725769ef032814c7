package services

import (
	"context"

	"gitshop/internal/domain"
)

// DocumentGenerator renders and stores an invoice document and returns its locator.
type DocumentGenerator interface {
	GenerateInvoice(ctx context.Context, inv *domain.Invoice, o *domain.Order, email string) (string, error)
}

// UserDirectory resolves a purchaser for the invoice and notification.
type UserDirectory interface {
	ByID(ctx context.Context, id string) (*domain.User, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// OrderNotifier tells the purchaser an order was placed.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, o *domain.Order, inv *domain.Invoice, email string) error
}
