package services

import (
	"context"
	"strings"
	"time"

	"gitshop/internal/domain"
	"gitshop/internal/events"
	applog "gitshop/internal/log"
	"gitshop/internal/repos"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type InventoryService struct {
	DB     *sqlx.DB
	Inv    *repos.InventoryRepo
	Prods  *repos.ProductRepo
	Events EventPublisher
}

func NewInventoryService(db *sqlx.DB) *InventoryService {
	return &InventoryService{
		DB:     db,
		Inv:    repos.NewInventoryRepo(db),
		Prods:  repos.NewProductRepo(db),
		Events: events.Nop{},
	}
}

// Adjustment is a signed stock change. Author nil means a system adjustment.
type Adjustment struct {
	ProductID string
	Delta     int
	Reason    string
	Author    *domain.User
}

func (s *InventoryService) Stock(ctx context.Context, productID string) (int, error) {
	return s.Inv.Stock(ctx, productID)
}

// CheckAvailability converts qty to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	qty, err := s.Inv.Stock(ctx, productID)
	if err != nil {
		return domain.Availability{}, err
	}
	status := "OUT_OF_STOCK"
	switch {
	case qty >= 5:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

// Adjust applies a.Delta to the locked product. A result below zero is
// rejected as insufficient stock, never clamped.
func (s *InventoryService) Adjust(ctx context.Context, a Adjustment) (int, error) {
	var rec *domain.StockAdjustment
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		p, err := s.Prods.WithTx(tx).GetForUpdate(ctx, a.ProductID)
		if err != nil {
			return err
		}
		if a.Author != nil && !a.Author.Is(domain.RoleAdmin) && p.SellerID != a.Author.ID {
			return domain.ErrForbidden
		}
		next := p.Stock + a.Delta
		if next < 0 {
			return &domain.InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: -a.Delta, Available: p.Stock}
		}
		inv := s.Inv.WithTx(tx)
		if err := inv.SetStock(ctx, p.ID, next); err != nil {
			return err
		}
		rec = &domain.StockAdjustment{
			ID:          uuid.NewString(),
			ProductID:   p.ID,
			Delta:       a.Delta,
			NewQuantity: next,
			Reason:      strings.TrimSpace(a.Reason),
			Author:      "system",
			CreatedAt:   time.Now().UTC(),
		}
		if a.Author != nil {
			rec.Author = a.Author.ID
		}
		if rec.Reason == "" {
			rec.Reason = "manual"
		}
		return inv.RecordAdjustment(ctx, rec)
	})
	if err != nil {
		return 0, err
	}
	if s.Events != nil {
		ev := events.InventoryAdjusted{
			ProductID:   rec.ProductID,
			Delta:       rec.Delta,
			NewQuantity: rec.NewQuantity,
			Reason:      rec.Reason,
			Author:      rec.Author,
		}
		if err := s.Events.Publish(ctx, events.TopicInventoryAdjusted, rec.ProductID, ev); err != nil {
			applog.Error(nil, "inventory.event.fail", err, map[string]any{"product_id": rec.ProductID})
		}
	}
	return rec.NewQuantity, nil
}

func (s *InventoryService) ListStock(ctx context.Context) ([]repos.InventoryRow, error) {
	return s.Inv.ListAll(ctx)
}

func (s *InventoryService) RecentAdjustments(ctx context.Context, productID string, limit int) ([]domain.StockAdjustment, error) {
	return s.Inv.RecentAdjustments(ctx, productID, limit)
}
