package repos

import (
	"context"
	"database/sql"
	"errors"

	"gitshop/internal/domain"

	"github.com/jmoiron/sqlx"
)

type InventoryRepo struct{ db sqlx.ExtContext }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

func (r *InventoryRepo) WithTx(tx *sqlx.Tx) *InventoryRepo { return &InventoryRepo{db: tx} }

// Row used by the admin stock listing
type InventoryRow struct {
	ProductID string `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	SellerID  string `db:"seller_id" json:"seller_id"`
	Stock     int    `db:"stock" json:"stock"`
}

// ListAll returns every product's stock level ordered by name.
func (r *InventoryRepo) ListAll(ctx context.Context) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := sel(ctx, r.db, &rows, `
		SELECT id AS product_id, name, seller_id, stock
		FROM products
		ORDER BY name, id
	`)
	return rows, err
}

// Stock returns the current stock for a product.
func (r *InventoryRepo) Stock(ctx context.Context, productID string) (int, error) {
	var qty int
	err := get(ctx, r.db, &qty, `SELECT stock FROM products WHERE id = ?`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &domain.ProductNotFoundError{ProductID: productID}
	}
	return qty, err
}

// Decrement atomically subtracts "by" units if enough stock exists.
// A shortfall returns *domain.InsufficientStockError carrying the stock seen afterwards.
func (r *InventoryRepo) Decrement(ctx context.Context, productID string, by int) error {
	res, err := exec(ctx, r.db, `
		UPDATE products
		SET stock = stock - ?
		WHERE id = ? AND stock >= ?
	`, by, productID, by)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		avail, err := r.Stock(ctx, productID)
		if err != nil {
			return err
		}
		return &domain.InsufficientStockError{ProductID: productID, Requested: by, Available: avail}
	}
	return nil
}

// SetStock writes an absolute stock level; callers validate it first.
func (r *InventoryRepo) SetStock(ctx context.Context, productID string, qty int) error {
	_, err := exec(ctx, r.db, `UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`, qty, now(), productID)
	return err
}

func (r *InventoryRepo) RecordAdjustment(ctx context.Context, a *domain.StockAdjustment) error {
	_, err := exec(ctx, r.db, `
		INSERT INTO stock_adjustments(id, product_id, delta, new_quantity, reason, author, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.ProductID, a.Delta, a.NewQuantity, a.Reason, a.Author, a.CreatedAt)
	return err
}

// RecentAdjustments lists the newest ledger rows, optionally for one product.
func (r *InventoryRepo) RecentAdjustments(ctx context.Context, productID string, limit int) ([]domain.StockAdjustment, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []domain.StockAdjustment{}
	q := `SELECT id, product_id, delta, new_quantity, reason, author, created_at FROM stock_adjustments`
	args := []any{}
	if productID != "" {
		q += ` WHERE product_id = ?`
		args = append(args, productID)
	}
	q += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)
	err := sel(ctx, r.db, &out, q, args...)
	return out, err
}
