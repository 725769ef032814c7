package services

import (
	"context"
	"strings"
	"time"

	"gitshop/internal/domain"
	"gitshop/internal/repos"

	"github.com/google/uuid"
)

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Orders  *repos.OrderRepo
	Prods   *repos.ProductRepo
}

func NewReviewService(reviews *repos.ReviewRepo, orders *repos.OrderRepo, prods *repos.ProductRepo) *ReviewService {
	return &ReviewService{Reviews: reviews, Orders: orders, Prods: prods}
}

type ReviewInput struct {
	ProductID string   `json:"product_id"`
	Rating    int      `json:"rating"`
	Comment   string   `json:"comment"`
	Images    []string `json:"images"`
}

// Submit creates or replaces the user's review. Only buyers of the product may review it.
func (s *ReviewService) Submit(ctx context.Context, u *domain.User, in ReviewInput) (*domain.Review, error) {
	if u == nil {
		return nil, domain.ErrUnauthenticated
	}
	if _, err := s.Prods.Get(ctx, in.ProductID); err != nil {
		return nil, err
	}
	ok, err := s.Orders.HasPurchased(ctx, u.ID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotPurchased
	}
	rv := &domain.Review{
		ID:        uuid.NewString(),
		ProductID: in.ProductID,
		UserID:    u.ID,
		UserName:  u.FullName,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		Images:    in.Images,
		CreatedAt: time.Now().UTC(),
	}
	if rv.Images == nil {
		rv.Images = []string{}
	}
	if err := s.Reviews.Upsert(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *ReviewService) ForProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	return s.Reviews.ListByProduct(ctx, productID)
}
