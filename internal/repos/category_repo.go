package repos

import (
	"context"

	"gitshop/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// List returns the distinct product categories with their product counts.
func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT category AS name, COUNT(*) AS products
	  FROM products
	  GROUP BY category
	  ORDER BY category`)
	return out, err
}
