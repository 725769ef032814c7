package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gitshop/internal/documents"
	"gitshop/internal/domain"
	"gitshop/internal/events"
	applog "gitshop/internal/log"
	"gitshop/internal/repos"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type OrderService struct {
	DB       *sqlx.DB
	Carts    *repos.CartRepo
	Prods    *repos.ProductRepo
	Inv      *repos.InventoryRepo
	Orders   *repos.OrderRepo
	Invoices *repos.InvoiceRepo

	Docs      DocumentGenerator
	DocStore  documents.Store
	Users     UserDirectory
	Events    EventPublisher
	Notify    OrderNotifier
	Currency  string
	OnOutcome func(outcome string)
}

func NewOrderService(db *sqlx.DB, docs DocumentGenerator, users UserDirectory) *OrderService {
	return &OrderService{
		DB:       db,
		Carts:    repos.NewCartRepo(db),
		Prods:    repos.NewProductRepo(db),
		Inv:      repos.NewInventoryRepo(db),
		Orders:   repos.NewOrderRepo(db),
		Invoices: repos.NewInvoiceRepo(db),
		Docs:     docs,
		Users:    users,
		Events:   events.Nop{},
		Currency: "USD",
	}
}

func (s *OrderService) outcome(o string) {
	if s.OnOutcome != nil {
		s.OnOutcome(o)
	}
}

// Checkout converts the user's cart into a PAID order with an invoice. Stock,
// order, invoice and cart clearing commit together; the invoice document,
// event and mail are attempted afterwards and never undo the order.
func (s *OrderService) Checkout(ctx context.Context, userID string) (*domain.Order, error) {
	var (
		order *domain.Order
		inv   *domain.Invoice
	)
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		carts := s.Carts.WithTx(tx)
		cart, err := carts.Ensure(ctx, userID)
		if err != nil {
			return err
		}
		items, err := carts.Items(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.ErrEmptyCart
		}

		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.ProductID
		}
		prods, err := s.Prods.WithTx(tx).GetManyForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		// validate everything before touching stock
		for _, it := range items {
			p, ok := prods[it.ProductID]
			if !ok {
				return &domain.ProductNotFoundError{ProductID: it.ProductID}
			}
			if p.Stock < it.Quantity {
				return &domain.InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: it.Quantity, Available: p.Stock}
			}
		}

		ts := time.Now().UTC()
		order = &domain.Order{
			ID:        uuid.NewString(),
			UserID:    userID,
			Currency:  s.Currency,
			Status:    domain.OrderPaid,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		stock := s.Inv.WithTx(tx)
		total := decimal.Zero
		for _, it := range items {
			p := prods[it.ProductID]
			if err := stock.Decrement(ctx, p.ID, it.Quantity); err != nil {
				var ise *domain.InsufficientStockError
				if errors.As(err, &ise) {
					ise.Name = p.Name
				}
				return err
			}
			price := p.Price
			if it.Price.Valid {
				price = it.Price.Decimal
			}
			oi := domain.OrderItem{
				ProductID:       p.ID,
				Quantity:        it.Quantity,
				PriceAtPurchase: price,
				ProductName:     p.Name,
				SellerID:        p.SellerID,
				Status:          domain.ItemPending,
			}
			if it.ProductName != nil && *it.ProductName != "" {
				oi.ProductName = *it.ProductName
			}
			total = total.Add(oi.Subtotal())
			order.Items = append(order.Items, oi)
		}
		order.TotalAmount = total

		if err := s.Orders.WithTx(tx).Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		inv = &domain.Invoice{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			UserID:    userID,
			Amount:    total,
			Currency:  s.Currency,
			Status:    "PAID",
			CreatedAt: ts,
		}
		if err := s.Invoices.WithTx(tx).Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := carts.Clear(ctx, cart.ID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		s.outcome(outcomeOf(err))
		return nil, err
	}
	s.outcome("ok")

	email := s.purchaserEmail(ctx, userID)
	s.attachDocument(ctx, order, inv, email)
	s.announce(ctx, order, inv, email)
	return order, nil
}

func outcomeOf(err error) string {
	var ise *domain.InsufficientStockError
	var pnf *domain.ProductNotFoundError
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &ise):
		return "insufficient_stock"
	case errors.As(err, &pnf):
		return "product_not_found"
	}
	return "error"
}

// purchaserEmail falls back to the user id when the directory has no address.
func (s *OrderService) purchaserEmail(ctx context.Context, userID string) string {
	if s.Users == nil {
		return userID
	}
	u, err := s.Users.ByID(ctx, userID)
	if err != nil || u == nil || u.Email == "" {
		return userID
	}
	return u.Email
}

func (s *OrderService) attachDocument(ctx context.Context, o *domain.Order, inv *domain.Invoice, email string) {
	if s.Docs == nil {
		return
	}
	loc, err := s.generate(ctx, inv, o, email)
	if err != nil {
		applog.Error(nil, "checkout.document.fail", err, map[string]any{"order_id": o.ID, "invoice_id": inv.ID})
		return
	}
	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if err := s.Invoices.WithTx(tx).SetPDFURL(ctx, inv.ID, loc); err != nil {
			return err
		}
		return s.Orders.WithTx(tx).SetPDFURL(ctx, o.ID, loc)
	})
	if err != nil {
		applog.Error(nil, "checkout.document.persist.fail", err, map[string]any{"order_id": o.ID, "invoice_id": inv.ID})
		return
	}
	inv.PDFURL = loc
	o.PDFURL = &loc
}

// generate turns a generator panic into an error.
func (s *OrderService) generate(ctx context.Context, inv *domain.Invoice, o *domain.Order, email string) (loc string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("document generator panic: %v", r)
		}
	}()
	return s.Docs.GenerateInvoice(ctx, inv, o, email)
}

func (s *OrderService) announce(ctx context.Context, o *domain.Order, inv *domain.Invoice, email string) {
	if s.Events != nil {
		ev := events.OrderCreated{
			OrderID:   o.ID,
			UserID:    o.UserID,
			InvoiceID: inv.ID,
			Total:     o.TotalAmount,
			Currency:  o.Currency,
		}
		for _, it := range o.Items {
			ev.Items = append(ev.Items, events.OrderLine{ProductID: it.ProductID, SellerID: it.SellerID, Quantity: it.Quantity, Price: it.PriceAtPurchase})
		}
		if err := s.Events.Publish(ctx, events.TopicOrderCreated, o.ID, ev); err != nil {
			applog.Error(nil, "checkout.event.fail", err, map[string]any{"order_id": o.ID})
		}
	}
	if s.Notify != nil {
		if err := s.Notify.OrderPlaced(ctx, o, inv, email); err != nil {
			applog.Error(nil, "checkout.mail.fail", err, map[string]any{"order_id": o.ID})
		}
	}
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.Orders.Get(ctx, orderID)
}

// ViewOrder allows the owner or an admin.
func (s *OrderService) ViewOrder(ctx context.Context, orderID string, viewer *domain.User) (*domain.Order, error) {
	if viewer == nil {
		return nil, domain.ErrUnauthenticated
	}
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != viewer.ID && !viewer.Is(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID string, page, limit int) ([]*domain.Order, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.Orders.ListByUser(ctx, userID, limit, (page-1)*limit)
}

func (s *OrderService) MerchantOrders(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	return s.Orders.ListBySeller(ctx, sellerID)
}

func (s *OrderService) LatestOrders(ctx context.Context, limit int) ([]*domain.Order, error) {
	return s.Orders.ListLatest(ctx, limit)
}

// UpdateItemStatus moves the seller's line for productID to the requested status
// and marks the order COMPLETED once every line is terminal.
func (s *OrderService) UpdateItemStatus(ctx context.Context, orderID, productID, sellerID, status string) (*domain.Order, error) {
	to, err := domain.ParseItemStatus(status)
	if err != nil {
		return nil, err
	}
	var (
		order *domain.Order
		from  domain.ItemStatus
	)
	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		orders := s.Orders.WithTx(tx)
		o, err := orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		idx := -1
		for i, it := range o.Items {
			if it.ProductID == productID && it.SellerID == sellerID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return domain.ErrItemNotFound
		}
		it := &o.Items[idx]
		from = it.Status
		if !domain.CanTransition(from, to) {
			reason := fmt.Sprintf("cannot move from %s to %s", from, to)
			if from.Terminal() {
				reason = fmt.Sprintf("item is already %s", from)
			}
			return &domain.InvalidStatusError{Status: status, Reason: reason}
		}
		if from != to {
			if err := orders.SetItemStatus(ctx, o.ID, it.Position, to); err != nil {
				return err
			}
			it.Status = to
		}
		if o.AllItemsTerminal() {
			o.Status = domain.OrderCompleted
		}
		o.UpdatedAt = time.Now().UTC()
		if err := orders.Touch(ctx, o.ID, o.Status, o.UpdatedAt); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.Events != nil && from != to {
		ev := events.ItemStatusChanged{
			OrderID:     order.ID,
			ProductID:   productID,
			SellerID:    sellerID,
			From:        string(from),
			To:          string(to),
			OrderStatus: string(order.Status),
		}
		if err := s.Events.Publish(ctx, events.TopicItemStatusChanged, order.ID, ev); err != nil {
			applog.Error(nil, "order.item_status.event.fail", err, map[string]any{"order_id": order.ID})
		}
	}
	return order, nil
}

func (s *OrderService) InvoiceForOrder(ctx context.Context, orderID string) (*domain.Invoice, error) {
	return s.Invoices.ByOrder(ctx, orderID)
}

// OpenInvoiceDocument returns the stored PDF for an order the viewer may see.
func (s *OrderService) OpenInvoiceDocument(ctx context.Context, orderID string, viewer *domain.User) (io.ReadCloser, *domain.Invoice, error) {
	if _, err := s.ViewOrder(ctx, orderID, viewer); err != nil {
		return nil, nil, err
	}
	inv, err := s.Invoices.ByOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if inv.PDFURL == "" || s.DocStore == nil {
		return nil, inv, documents.ErrNotFound
	}
	rc, err := s.DocStore.Open(ctx, inv.PDFURL)
	if err != nil {
		return nil, inv, err
	}
	return rc, inv, nil
}
