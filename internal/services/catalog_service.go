package services

import (
	"context"
	"strings"
	"time"

	"gitshop/internal/domain"
	"gitshop/internal/repos"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CatalogService struct {
	Cats     *repos.CategoryRepo
	Prods    *repos.ProductRepo
	Currency string
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Currency: "USD"}
}

// ProductInput carries the seller-editable fields. Stock is only set on create;
// later changes go through InventoryService.Adjust.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Images      []string        `json:"images"`
	Stock       int             `json:"stock"`
}

func paging(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return pageSize, (page - 1) * pageSize
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) ListProducts(ctx context.Context, page, pageSize int) ([]domain.Product, error) {
	limit, offset := paging(page, pageSize)
	return s.Prods.List(ctx, limit, offset)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

func (s *CatalogService) Search(ctx context.Context, q, category string, page, pageSize int) ([]domain.Product, error) {
	limit, offset := paging(page, pageSize)
	return s.Prods.Search(ctx, strings.ToLower(q), category, limit, offset)
}

func (s *CatalogService) Create(ctx context.Context, seller *domain.User, in ProductInput) (*domain.Product, error) {
	if seller == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !seller.Is(domain.RoleSeller) && !seller.Is(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	if in.Stock < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	ts := time.Now().UTC()
	p := &domain.Product{
		ID:          uuid.NewString(),
		SellerID:    seller.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Currency:    s.Currency,
		Category:    strings.TrimSpace(in.Category),
		Images:      in.Images,
		Stock:       in.Stock,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if err := s.Prods.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// owned loads the product and checks that actor may change it.
func (s *CatalogService) owned(ctx context.Context, actor *domain.User, id string) (*domain.Product, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != actor.ID && !actor.Is(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, actor *domain.User, id string, in ProductInput) (*domain.Product, error) {
	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.Category = strings.TrimSpace(in.Category)
	if in.Images != nil {
		p.Images = in.Images
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.Prods.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, actor *domain.User, id string) error {
	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.Prods.Delete(ctx, p.ID)
}
