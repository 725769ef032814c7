package services

import (
	"context"

	"gitshop/internal/domain"
	"gitshop/internal/repos"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CartService struct {
	DB    *sqlx.DB
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(db *sqlx.DB) *CartService {
	return &CartService{DB: db, Carts: repos.NewCartRepo(db), Prods: repos.NewProductRepo(db)}
}

// AddItem is the add-to-cart request. Nil fields are filled from the catalog.
type AddItem struct {
	ProductID   string           `json:"product_id"`
	Quantity    int              `json:"quantity"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	ProductName *string          `json:"product_name,omitempty"`
	Image       *string          `json:"image,omitempty"`
}

// mutate locks the user's cart, applies fn, then recomputes the total from
// the persisted lines before commit.
func (s *CartService) mutate(ctx context.Context, userID string, fn func(carts *repos.CartRepo, prods *repos.ProductRepo, cart *domain.Cart) error) (*domain.Cart, error) {
	var out *domain.Cart
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts := s.Carts.WithTx(tx)
		cart, err := carts.Ensure(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(carts, s.Prods.WithTx(tx), cart); err != nil {
			return err
		}
		items, err := carts.Items(ctx, cart.ID)
		if err != nil {
			return err
		}
		cart.Items = items
		cart.Total = domain.CartTotal(items)
		if err := carts.SetTotal(ctx, cart.ID, cart.Total); err != nil {
			return err
		}
		out = cart
		return nil
	})
	return out, err
}

func (s *CartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(*repos.CartRepo, *repos.ProductRepo, *domain.Cart) error { return nil })
}

// Add merges into an existing line for the same product; otherwise inserts a
// line snapshotting price, name and image.
func (s *CartService) Add(ctx context.Context, userID string, req AddItem) (*domain.Cart, error) {
	if req.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	return s.mutate(ctx, userID, func(carts *repos.CartRepo, prods *repos.ProductRepo, cart *domain.Cart) error {
		p, err := prods.Get(ctx, req.ProductID)
		if err != nil {
			return err
		}
		it := domain.CartItem{ProductID: p.ID, Quantity: req.Quantity}
		if req.Price != nil {
			it.Price = decimal.NewNullDecimal(*req.Price)
		} else {
			it.Price = decimal.NewNullDecimal(p.Price)
		}
		name := p.Name
		if req.ProductName != nil {
			name = *req.ProductName
		}
		it.ProductName = &name
		if req.Image != nil {
			it.Image = req.Image
		} else if img := p.MainImage(); img != "" {
			it.Image = &img
		}
		return carts.UpsertItem(ctx, cart.ID, it)
	})
}

// UpdateQuantity sets a line's quantity; qty <= 0 removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(carts *repos.CartRepo, _ *repos.ProductRepo, cart *domain.Cart) error {
		var (
			found bool
			err   error
		)
		if qty <= 0 {
			found, err = carts.RemoveItem(ctx, cart.ID, productID)
		} else {
			found, err = carts.SetQuantity(ctx, cart.ID, productID, qty)
		}
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrItemNotFound
		}
		return nil
	})
}

func (s *CartService) Remove(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	return s.UpdateQuantity(ctx, userID, productID, 0)
}

func (s *CartService) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(carts *repos.CartRepo, _ *repos.ProductRepo, cart *domain.Cart) error {
		return carts.Clear(ctx, cart.ID)
	})
}
