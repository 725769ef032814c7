package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"gitshop/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db sqlx.ExtContext }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// WithTx returns a repo bound to tx.
func (r *ProductRepo) WithTx(tx *sqlx.Tx) *ProductRepo { return &ProductRepo{db: tx} }

const productCols = `id, seller_id, name, description, price, currency, category, images_json, stock, created_at, updated_at`

func decodeImages(s string) []string {
	out := []string{}
	if s == "" {
		return out
	}
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

func encodeImages(imgs []string) string {
	if imgs == nil {
		imgs = []string{}
	}
	b, _ := json.Marshal(imgs)
	return string(b)
}

func hydrate(ps []domain.Product) []domain.Product {
	for i := range ps {
		ps[i].Images = decodeImages(ps[i].ImagesJSON)
	}
	return ps
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate row-locks the product on drivers that support it.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	return r.get(ctx, id, forUpdate(r.db))
}

func (r *ProductRepo) get(ctx context.Context, id, lock string) (*domain.Product, error) {
	var p domain.Product
	err := get(ctx, r.db, &p, `SELECT `+productCols+` FROM products WHERE id = ?`+lock, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return nil, err
	}
	p.Images = decodeImages(p.ImagesJSON)
	return &p, nil
}

// GetManyForUpdate loads and locks the given products in id order so that
// concurrent checkouts acquire locks in the same sequence. Missing ids are
// simply absent from the result.
func (r *ProductRepo) GetManyForUpdate(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	uniq := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Strings(uniq)
	out := make(map[string]*domain.Product, len(uniq))
	if len(uniq) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+productCols+` FROM products WHERE id IN (?) ORDER BY id`+forUpdate(r.db), uniq)
	if err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := sel(ctx, r.db, &rows, q, args...); err != nil {
		return nil, err
	}
	for i := range hydrate(rows) {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := sel(ctx, r.db, &out, `
	  SELECT `+productCols+`
	  FROM products
	  ORDER BY created_at DESC, id
	  LIMIT ? OFFSET ?`, limit, offset)
	return hydrate(out), err
}

func (r *ProductRepo) Search(ctx context.Context, q, category string, limit, offset int) ([]domain.Product, error) {
	where := `1 = 1`
	args := []any{}
	if q != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if category != "" {
		where += ` AND category = ?`
		args = append(args, category)
	}
	query := `
	  SELECT ` + productCols + `
	  FROM products
	  WHERE ` + where + `
	  ORDER BY created_at DESC, id
	  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []domain.Product
	err := sel(ctx, r.db, &out, query, args...)
	return hydrate(out), err
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	_, err := exec(ctx, r.db, `
	  INSERT INTO products(`+productCols+`)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SellerID, p.Name, p.Description, p.Price, p.Currency, p.Category,
		encodeImages(p.Images), p.Stock, p.CreatedAt, p.UpdatedAt)
	return err
}

// Update rewrites the editable catalog fields. Stock is owned by the inventory guard.
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	_, err := exec(ctx, r.db, `
	  UPDATE products
	  SET name = ?, description = ?, price = ?, category = ?, images_json = ?, updated_at = ?
	  WHERE id = ?`,
		p.Name, p.Description, p.Price, p.Category, encodeImages(p.Images), p.UpdatedAt, p.ID)
	return err
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	_, err := exec(ctx, r.db, `DELETE FROM products WHERE id = ?`, id)
	return err
}

func (r *ProductRepo) DeleteBySeller(ctx context.Context, sellerID string) error {
	_, err := exec(ctx, r.db, `DELETE FROM products WHERE seller_id = ?`, sellerID)
	return err
}
