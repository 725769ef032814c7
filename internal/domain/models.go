package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	Name     string `db:"name" json:"name"`
	Products int    `db:"products" json:"products"`
}

type Product struct {
	ID          string          `db:"id" json:"id"`
	SellerID    string          `db:"seller_id" json:"seller_id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Currency    string          `db:"currency" json:"currency"`
	Category    string          `db:"category" json:"category"`
	ImagesJSON  string          `db:"images_json" json:"-"`
	Images      []string        `db:"-" json:"images"`
	Stock       int             `db:"stock" json:"stock"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// MainImage returns the first image path or "".
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

type StockAdjustment struct {
	ID          string    `db:"id" json:"id"`
	ProductID   string    `db:"product_id" json:"product_id"`
	Delta       int       `db:"delta" json:"delta"`
	NewQuantity int       `db:"new_quantity" json:"new_quantity"`
	Reason      string    `db:"reason" json:"reason"`
	Author      string    `db:"author" json:"author"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Cart struct {
	ID        string          `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Total     decimal.Decimal `db:"total" json:"total"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
	Items     []CartItem      `db:"-" json:"items"`
}

// CartItem keeps the price/name/image captured when the product was added;
// later catalog changes do not reprice it.
type CartItem struct {
	ProductID   string              `db:"product_id" json:"product_id"`
	Quantity    int                 `db:"quantity" json:"quantity"`
	Price       decimal.NullDecimal `db:"price" json:"price"`
	ProductName *string             `db:"product_name" json:"product_name"`
	Image       *string             `db:"image" json:"image"`
}

func (it CartItem) Subtotal() decimal.Decimal {
	if !it.Price.Valid {
		return decimal.Zero
	}
	return it.Price.Decimal.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// CartTotal sums quantity*price over items; unpriced rows count as zero.
func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

type Order struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	Currency    string          `db:"currency" json:"currency"`
	Status      OrderStatus     `db:"status" json:"status"`
	PaymentID   *string         `db:"payment_id" json:"payment_id,omitempty"`
	PDFURL      *string         `db:"pdf_url" json:"pdf_url,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
	Items       []OrderItem     `db:"-" json:"items"`
}

type OrderItem struct {
	OrderID         string          `db:"order_id" json:"-"`
	Position        int             `db:"position" json:"-"`
	ProductID       string          `db:"product_id" json:"product_id"`
	Quantity        int             `db:"quantity" json:"quantity"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase" json:"price_at_purchase"`
	ProductName     string          `db:"product_name" json:"product_name"`
	SellerID        string          `db:"seller_id" json:"seller_id"`
	Status          ItemStatus      `db:"status" json:"status"`
}

func (it OrderItem) Subtotal() decimal.Decimal {
	return it.PriceAtPurchase.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// AllItemsTerminal reports whether every item reached a terminal status.
func (o *Order) AllItemsTerminal() bool {
	for _, it := range o.Items {
		if !it.Status.Terminal() {
			return false
		}
	}
	return true
}

type Invoice struct {
	ID        string          `db:"id" json:"id"`
	OrderID   string          `db:"order_id" json:"order_id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Currency  string          `db:"currency" json:"currency"`
	Status    string          `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	PDFURL    string          `db:"pdf_url" json:"pdf_url"`
}

type Review struct {
	ID         string    `db:"id" json:"id"`
	ProductID  string    `db:"product_id" json:"product_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	UserName   string    `db:"user_name" json:"user_name"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    string    `db:"comment" json:"comment"`
	ImagesJSON string    `db:"images_json" json:"-"`
	Images     []string  `db:"-" json:"images"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
