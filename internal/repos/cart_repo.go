package repos

import (
	"context"

	"gitshop/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CartRepo struct{ db sqlx.ExtContext }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

func (r *CartRepo) WithTx(tx *sqlx.Tx) *CartRepo { return &CartRepo{db: tx} }

// Ensure returns the user's cart, creating it on first use. Inside a
// transaction on postgres the cart row stays locked until commit.
func (r *CartRepo) Ensure(ctx context.Context, userID string) (*domain.Cart, error) {
	if _, err := exec(ctx, r.db, `
		INSERT INTO carts(id, user_id, total, updated_at)
		VALUES (?, ?, '0', ?)
		ON CONFLICT(user_id) DO NOTHING
	`, uuid.NewString(), userID, now()); err != nil {
		return nil, err
	}
	var c domain.Cart
	if err := get(ctx, r.db, &c, `SELECT id, user_id, total, updated_at FROM carts WHERE user_id = ?`+forUpdate(r.db), userID); err != nil {
		return nil, err
	}
	return &c, nil
}

// Items returns the cart lines in insertion order.
func (r *CartRepo) Items(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	out := []domain.CartItem{}
	err := sel(ctx, r.db, &out, `
	  SELECT product_id, quantity, price, product_name, image
	  FROM cart_items
	  WHERE cart_id = ?
	  ORDER BY created_at, product_id
	`, cartID)
	return out, err
}

// UpsertItem adds a line or merges quantity into the existing one. The
// existing line keeps its price/name/image snapshot.
func (r *CartRepo) UpsertItem(ctx context.Context, cartID string, it domain.CartItem) error {
	ts := now()
	_, err := exec(ctx, r.db, `
		INSERT INTO cart_items(cart_id, product_id, quantity, price, product_name, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity, updated_at = excluded.updated_at
	`, cartID, it.ProductID, it.Quantity, it.Price, it.ProductName, it.Image, ts, ts)
	return err
}

// SetQuantity reports whether a line for productID existed.
func (r *CartRepo) SetQuantity(ctx context.Context, cartID, productID string, qty int) (bool, error) {
	res, err := exec(ctx, r.db, `
		UPDATE cart_items SET quantity = ?, updated_at = ?
		WHERE cart_id = ? AND product_id = ?
	`, qty, now(), cartID, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *CartRepo) RemoveItem(ctx context.Context, cartID, productID string) (bool, error) {
	res, err := exec(ctx, r.db, `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *CartRepo) Clear(ctx context.Context, cartID string) error {
	if _, err := exec(ctx, r.db, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return err
	}
	return r.SetTotal(ctx, cartID, decimal.Zero)
}

func (r *CartRepo) SetTotal(ctx context.Context, cartID string, total decimal.Decimal) error {
	_, err := exec(ctx, r.db, `UPDATE carts SET total = ?, updated_at = ? WHERE id = ?`, total, now(), cartID)
	return err
}

// DeleteByUser drops the user's cart and its lines.
func (r *CartRepo) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := exec(ctx, r.db, `DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id = ?)`, userID); err != nil {
		return err
	}
	_, err := exec(ctx, r.db, `DELETE FROM carts WHERE user_id = ?`, userID)
	return err
}
