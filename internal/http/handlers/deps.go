package handlers

import (
	"gitshop/internal/config"
	"gitshop/internal/documents"
	"gitshop/internal/repos"
	"gitshop/internal/services"

	"github.com/jmoiron/sqlx"
)

// Options carries the optional collaborators chosen in main. Nil fields fall
// back to the service defaults.
type Options struct {
	Docs      services.DocumentGenerator
	DocStore  documents.Store
	Events    services.EventPublisher
	Notify    services.OrderNotifier
	Idem      IdempotencyStore
	OnOutcome func(outcome string)
}

type Deps struct {
	AuthSvc *services.AuthService

	AuthHandler      *AuthHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	ReviewHandler    *ReviewHandler
	AdminHandler     *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, opt Options) *Deps {
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	authSvc := services.NewAuthService(userRepo, cfg.SessionTTL)
	catalogSvc := services.NewCatalogService(repos.NewCategoryRepo(db), prodRepo)
	catalogSvc.Currency = cfg.Currency
	invSvc := services.NewInventoryService(db)
	cartSvc := services.NewCartService(db)
	reviewSvc := services.NewReviewService(repos.NewReviewRepo(db), orderRepo, prodRepo)

	orderSvc := services.NewOrderService(db, opt.Docs, userRepo)
	orderSvc.DocStore = opt.DocStore
	orderSvc.Notify = opt.Notify
	orderSvc.OnOutcome = opt.OnOutcome
	orderSvc.Currency = cfg.Currency
	if opt.Events != nil {
		orderSvc.Events = opt.Events
		invSvc.Events = opt.Events
	}

	return &Deps{
		AuthSvc:          authSvc,
		AuthHandler:      &AuthHandler{Auth: authSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		OrderHandler:     &OrderHandler{Order: orderSvc, Idem: opt.Idem},
		ReviewHandler:    &ReviewHandler{Reviews: reviewSvc},
		AdminHandler:     &AdminHandler{OrderSvc: orderSvc, Inv: invSvc, Auth: authSvc},
	}
}
