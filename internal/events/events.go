package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicOrderCreated      = "order.created"
	TopicItemStatusChanged = "order.item_status_changed"
	TopicInventoryAdjusted = "inventory.adjusted"
)

type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Key          string          `json:"key,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

// Wrap builds a version-1 envelope for payload.
func Wrap(producer, topic, key string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:      uuid.NewString(),
		EventType:    topic,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     producer,
		Key:          key,
		Payload:      b,
	}, nil
}

// ---- payloads ----

type OrderLine struct {
	ProductID string          `json:"product_id"`
	SellerID  string          `json:"seller_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderCreated struct {
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	InvoiceID string          `json:"invoice_id"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
	Items     []OrderLine     `json:"items"`
}

type ItemStatusChanged struct {
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	SellerID    string `json:"seller_id"`
	From        string `json:"from"`
	To          string `json:"to"`
	OrderStatus string `json:"order_status"`
}

type InventoryAdjusted struct {
	ProductID   string `json:"product_id"`
	Delta       int    `json:"delta"`
	NewQuantity int    `json:"new_quantity"`
	Reason      string `json:"reason"`
	Author      string `json:"author"`
}
