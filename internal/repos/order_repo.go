package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gitshop/internal/domain"

	"github.com/jmoiron/sqlx"
)

type OrderRepo struct{ db sqlx.ExtContext }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) WithTx(tx *sqlx.Tx) *OrderRepo { return &OrderRepo{db: tx} }

const orderCols = `id, user_id, total_amount, currency, status, payment_id, pdf_url, created_at, updated_at`

// Create inserts the order header and its items. Item positions follow slice order.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	if _, err := exec(ctx, r.db, `
	  INSERT INTO orders(`+orderCols+`)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.UserID, o.TotalAmount, o.Currency, o.Status, o.PaymentID, o.PDFURL, o.CreatedAt, o.UpdatedAt); err != nil {
		return err
	}
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		it.Position = i
		if _, err := exec(ctx, r.db, `
		  INSERT INTO order_items(order_id, position, product_id, quantity, price_at_purchase, product_name, seller_id, status)
		  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, it.OrderID, it.Position, it.ProductID, it.Quantity, it.PriceAtPurchase, it.ProductName, it.SellerID, it.Status); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate locks the order header (postgres) before loading its items.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, id, forUpdate(r.db))
}

func (r *OrderRepo) get(ctx context.Context, id, lock string) (*domain.Order, error) {
	var o domain.Order
	err := get(ctx, r.db, &o, `SELECT `+orderCols+` FROM orders WHERE id = ?`+lock, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	out := []*domain.Order{&o}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser pages through a user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, error) {
	return r.list(ctx, `
		SELECT `+orderCols+`
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
}

// ListBySeller returns each order containing at least one of the seller's
// items exactly once. The items returned are the full order.
func (r *OrderRepo) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	return r.list(ctx, `
		SELECT `+orderCols+`
		FROM orders o
		WHERE EXISTS (
		  SELECT 1 FROM order_items oi
		  WHERE oi.order_id = o.id AND oi.seller_id = ?
		)
		ORDER BY o.created_at DESC, o.id
	`, sellerID)
}

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `
		SELECT `+orderCols+`
		FROM orders
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
}

func (r *OrderRepo) list(ctx context.Context, q string, args ...any) ([]*domain.Order, error) {
	var rows []domain.Order
	if err := sel(ctx, r.db, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]*domain.Order, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadItems fills Items for all orders with a single IN query.
func (r *OrderRepo) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*domain.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		o.Items = []domain.OrderItem{}
		byID[o.ID] = o
	}
	q, args, err := sqlx.In(`
		SELECT order_id, position, product_id, quantity, price_at_purchase, product_name, seller_id, status
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return err
	}
	var items []domain.OrderItem
	if err := sel(ctx, r.db, &items, q, args...); err != nil {
		return err
	}
	for _, it := range items {
		if o := byID[it.OrderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return nil
}

func (r *OrderRepo) SetItemStatus(ctx context.Context, orderID string, position int, st domain.ItemStatus) error {
	_, err := exec(ctx, r.db, `UPDATE order_items SET status = ? WHERE order_id = ? AND position = ?`, st, orderID, position)
	return err
}

// Touch sets the order status and bumps updated_at.
func (r *OrderRepo) Touch(ctx context.Context, orderID string, st domain.OrderStatus, at time.Time) error {
	_, err := exec(ctx, r.db, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, st, at, orderID)
	return err
}

func (r *OrderRepo) SetPDFURL(ctx context.Context, orderID, url string) error {
	_, err := exec(ctx, r.db, `UPDATE orders SET pdf_url = ?, updated_at = ? WHERE id = ?`, url, now(), orderID)
	return err
}

// HasPurchased reports whether userID has any order containing productID.
func (r *OrderRepo) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	var n int
	err := get(ctx, r.db, &n, `
		SELECT COUNT(*)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.user_id = ? AND oi.product_id = ?
	`, userID, productID)
	return n > 0, err
}
