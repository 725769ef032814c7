package repos

import (
	"context"

	"gitshop/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Upsert keeps one review per user and product; a second submission replaces
// the rating, comment and images and refreshes created_at.
func (r *ReviewRepo) Upsert(ctx context.Context, rv *domain.Review) error {
	_, err := exec(ctx, r.db, `
	  INSERT INTO reviews(id, product_id, user_id, user_name, rating, comment, images_json, created_at)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	  ON CONFLICT(product_id, user_id) DO UPDATE SET
	    user_name = excluded.user_name,
	    rating = excluded.rating,
	    comment = excluded.comment,
	    images_json = excluded.images_json,
	    created_at = excluded.created_at
	`, rv.ID, rv.ProductID, rv.UserID, rv.UserName, rv.Rating, rv.Comment, encodeImages(rv.Images), rv.CreatedAt)
	if err != nil {
		return err
	}
	// the surviving row keeps its original id on conflict
	return get(ctx, r.db, &rv.ID, `SELECT id FROM reviews WHERE product_id = ? AND user_id = ?`, rv.ProductID, rv.UserID)
}

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	out := []domain.Review{}
	err := sel(ctx, r.db, &out, `
	  SELECT id, product_id, user_id, user_name, rating, comment, images_json, created_at
	  FROM reviews
	  WHERE product_id = ?
	  ORDER BY created_at DESC, id
	`, productID)
	for i := range out {
		out[i].Images = decodeImages(out[i].ImagesJSON)
	}
	return out, err
}
