package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"gitshop/internal/domain"
	"gitshop/internal/events"
	"gitshop/internal/services"

	"github.com/shopspring/decimal"
)

func TestCheckout_Success(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.product(t, "Cable", "9.99", 10)
	b := e.product(t, "Dock", "120.00", 3)
	e.add(t, "u-alice", a.ID, 2)
	e.add(t, "u-alice", b.ID, 1)

	o, err := e.orders.Checkout(ctx, "u-alice")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.OrderPaid {
		t.Fatalf("want PAID, got %s", o.Status)
	}
	if !o.TotalAmount.Equal(decimal.RequireFromString("139.98")) {
		t.Fatalf("bad total %s", o.TotalAmount)
	}
	if len(o.Items) != 2 || o.Items[0].ProductID != a.ID || o.Items[1].ProductID != b.ID {
		t.Fatalf("items not in cart order: %+v", o.Items)
	}
	for _, it := range o.Items {
		if it.Status != domain.ItemPending || it.SellerID != "u-seller" {
			t.Fatalf("bad item %+v", it)
		}
	}
	if got := e.stock(t, a.ID); got != 8 {
		t.Fatalf("stock a: want 8, got %d", got)
	}
	if got := e.stock(t, b.ID); got != 2 {
		t.Fatalf("stock b: want 2, got %d", got)
	}

	// cart cleared
	c, err := e.cart.Get(ctx, "u-alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Items) != 0 || !c.Total.IsZero() {
		t.Fatalf("cart not cleared: %+v", c)
	}

	// invoice mirrors the order and the document locator landed on both
	inv, err := e.orders.InvoiceForOrder(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !inv.Amount.Equal(o.TotalAmount) || inv.Status != "PAID" || inv.Currency != "USD" {
		t.Fatalf("bad invoice %+v", inv)
	}
	want := "invoices/pdfs/" + inv.ID + ".pdf"
	if inv.PDFURL != want {
		t.Fatalf("invoice pdf_url: want %s, got %q", want, inv.PDFURL)
	}
	stored, err := e.orders.GetOrder(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PDFURL == nil || *stored.PDFURL != want {
		t.Fatalf("order pdf_url not persisted: %v", stored.PDFURL)
	}
	if e.docs.email != "alice@gitshop.test" {
		t.Fatalf("document billed to %q", e.docs.email)
	}
	if topics := e.events.topics(); len(topics) != 1 || topics[0] != events.TopicOrderCreated {
		t.Fatalf("want one order.created event, got %v", topics)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	e := newEnv(t)
	_, err := e.orders.Checkout(context.Background(), "u-alice")
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("want ErrEmptyCart, got %v", err)
	}
}

func TestCheckout_IsAtomic(t *testing.T) {
	e := newEnv(t)
	a := e.product(t, "A", "10.00", 5)
	b := e.product(t, "B", "20.00", 1)
	e.add(t, "u-alice", a.ID, 3)
	e.add(t, "u-alice", b.ID, 2)

	_, err := e.orders.Checkout(context.Background(), "u-alice")
	var ise *domain.InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if ise.ProductID != b.ID || ise.Available != 1 || ise.Requested != 2 {
		t.Fatalf("bad error detail %+v", ise)
	}
	if !strings.Contains(err.Error(), "Available: 1") {
		t.Fatalf("message should carry availability: %v", err)
	}
	if got := e.stock(t, a.ID); got != 5 {
		t.Fatalf("A must be untouched, got %d", got)
	}
	if got := e.stock(t, b.ID); got != 1 {
		t.Fatalf("B must be untouched, got %d", got)
	}
	orders, err := e.orders.ListUserOrders(context.Background(), "u-alice", 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 0 {
		t.Fatalf("no order expected, got %d", len(orders))
	}
	c, _ := e.cart.Get(context.Background(), "u-alice")
	if len(c.Items) != 2 {
		t.Fatalf("cart must survive a failed checkout: %+v", c.Items)
	}
}

func TestCheckout_ProductDeletedAfterAdd(t *testing.T) {
	e := newEnv(t)
	p := e.product(t, "Ghost", "1.00", 3)
	e.add(t, "u-alice", p.ID, 1)
	if err := e.catalog.Delete(context.Background(), e.user(t, "u-seller"), p.ID); err != nil {
		t.Fatal(err)
	}
	_, err := e.orders.Checkout(context.Background(), "u-alice")
	var pnf *domain.ProductNotFoundError
	if !errors.As(err, &pnf) || pnf.ProductID != p.ID {
		t.Fatalf("want ProductNotFoundError(%s), got %v", p.ID, err)
	}
}

func TestCheckout_UsesSnapshotPrice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Lamp", "40.00", 5)
	e.add(t, "u-alice", p.ID, 1)

	// catalog reprice after add must not affect the order
	if _, err := e.catalog.Update(ctx, e.user(t, "u-seller"), p.ID, services.ProductInput{
		Name: "Lamp", Price: decimal.RequireFromString("55.00"), Category: "test",
	}); err != nil {
		t.Fatal(err)
	}
	o, err := e.orders.Checkout(ctx, "u-alice")
	if err != nil {
		t.Fatal(err)
	}
	if !o.Items[0].PriceAtPurchase.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("want snapshot 40.00, got %s", o.Items[0].PriceAtPurchase)
	}
}

func TestCheckout_DocumentFailureIsIsolated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	buf := captureLog(t)
	e.docs.err = errBoom
	mailer := &fakeNotifier{}
	e.orders.Notify = mailer

	p := e.product(t, "Desk", "199.00", 2)
	e.add(t, "u-alice", p.ID, 1)

	o, err := e.orders.Checkout(ctx, "u-alice")
	if err != nil {
		t.Fatalf("checkout must succeed despite document failure: %v", err)
	}
	if o.PDFURL != nil {
		t.Fatalf("no locator expected, got %v", *o.PDFURL)
	}
	if got := e.stock(t, p.ID); got != 1 {
		t.Fatalf("stock must be decremented, got %d", got)
	}
	inv, err := e.orders.InvoiceForOrder(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if inv.PDFURL != "" {
		t.Fatalf("invoice pdf_url should stay empty, got %q", inv.PDFURL)
	}
	if !strings.Contains(buf.String(), `"action":"checkout.document.fail"`) {
		t.Fatalf("document failure not logged: %s", buf.String())
	}
	if mailer.calls != 1 {
		t.Fatalf("mail should still be attempted, calls=%d", mailer.calls)
	}
}

type panicDocs struct{}

func (panicDocs) GenerateInvoice(context.Context, *domain.Invoice, *domain.Order, string) (string, error) {
	panic("renderer exploded")
}

func TestCheckout_DocumentPanicIsIsolated(t *testing.T) {
	e := newEnv(t)
	buf := captureLog(t)
	e.orders.Docs = panicDocs{}
	p := e.product(t, "Chair", "75.00", 2)
	e.add(t, "u-alice", p.ID, 1)

	if _, err := e.orders.Checkout(context.Background(), "u-alice"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "renderer exploded") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}

func TestCheckout_EmailFallsBackToUserID(t *testing.T) {
	e := newEnv(t)
	e.orders.Users = nil
	p := e.product(t, "Pen", "2.00", 2)
	e.add(t, "u-alice", p.ID, 1)
	if _, err := e.orders.Checkout(context.Background(), "u-alice"); err != nil {
		t.Fatal(err)
	}
	if e.docs.email != "u-alice" {
		t.Fatalf("want user id fallback, got %q", e.docs.email)
	}
}

func TestCheckout_ConcurrentRace(t *testing.T) {
	e := newEnv(t)
	p := e.product(t, "Last One", "50.00", 1)
	e.add(t, "u-alice", p.ID, 1)
	e.add(t, "u-admin", p.ID, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []string{"u-alice", "u-admin"} {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			_, errs[i] = e.orders.Checkout(context.Background(), uid)
		}(i, uid)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		var ise *domain.InsufficientStockError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &ise):
			short++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || short != 1 {
		t.Fatalf("want one success and one shortfall, got ok=%d short=%d", ok, short)
	}
	if got := e.stock(t, p.ID); got != 0 {
		t.Fatalf("final stock: want 0, got %d", got)
	}
}

func TestUpdateItemStatus_CompletesOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.product(t, "A", "5.00", 5)
	b := e.product(t, "B", "6.00", 5)
	e.add(t, "u-alice", a.ID, 1)
	e.add(t, "u-alice", b.ID, 1)
	o, err := e.orders.Checkout(ctx, "u-alice")
	if err != nil {
		t.Fatal(err)
	}

	got, err := e.orders.UpdateItemStatus(ctx, o.ID, a.ID, "u-seller", "delivered")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.OrderPaid {
		t.Fatalf("one open item left, want PAID, got %s", got.Status)
	}
	got, err = e.orders.UpdateItemStatus(ctx, o.ID, b.ID, "u-seller", "cancelled")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.OrderCompleted {
		t.Fatalf("all items terminal, want COMPLETED, got %s", got.Status)
	}
	stored, err := e.orders.GetOrder(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.OrderCompleted || stored.UpdatedAt.Before(o.UpdatedAt) {
		t.Fatalf("bad stored order %+v", stored)
	}
	if stored.Items[0].Status != domain.ItemDelivered || stored.Items[1].Status != domain.ItemCancelled {
		t.Fatalf("item statuses not persisted: %+v", stored.Items)
	}
}

func TestUpdateItemStatus_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "A", "5.00", 5)
	e.add(t, "u-alice", p.ID, 1)
	o, err := e.orders.Checkout(ctx, "u-alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.orders.UpdateItemStatus(ctx, "missing", p.ID, "u-seller", "accepted"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("want ErrOrderNotFound, got %v", err)
	}
	if _, err := e.orders.UpdateItemStatus(ctx, o.ID, p.ID, "someone-else", "accepted"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("want ErrItemNotFound, got %v", err)
	}
	var ise *domain.InvalidStatusError
	if _, err := e.orders.UpdateItemStatus(ctx, o.ID, p.ID, "u-seller", "completed"); !errors.As(err, &ise) {
		t.Fatalf("completed is not settable, got %v", err)
	}
	if _, err := e.orders.UpdateItemStatus(ctx, o.ID, p.ID, "u-seller", "packing"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.orders.UpdateItemStatus(ctx, o.ID, p.ID, "u-seller", "accepted"); !errors.As(err, &ise) {
		t.Fatalf("backward move must fail, got %v", err)
	}
	if _, err := e.orders.UpdateItemStatus(ctx, o.ID, p.ID, "u-seller", "packing"); err != nil {
		t.Fatalf("same status is a no-op, got %v", err)
	}
	if _, err := e.orders.UpdateItemStatus(ctx, o.ID, p.ID, "u-seller", "delivered"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.orders.UpdateItemStatus(ctx, o.ID, p.ID, "u-seller", "cancelled"); !errors.As(err, &ise) {
		t.Fatalf("terminal item must not change, got %v", err)
	}
}

func TestMerchantOrders_Distinct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.product(t, "A", "1.00", 9)
	b := e.product(t, "B", "2.00", 9)
	e.add(t, "u-alice", a.ID, 1)
	e.add(t, "u-alice", b.ID, 1)
	if _, err := e.orders.Checkout(ctx, "u-alice"); err != nil {
		t.Fatal(err)
	}
	e.add(t, "u-admin", a.ID, 2)
	if _, err := e.orders.Checkout(ctx, "u-admin"); err != nil {
		t.Fatal(err)
	}

	got, err := e.orders.MerchantOrders(ctx, "u-seller")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 distinct orders, got %d", len(got))
	}
	if len(got[0].Items) == 0 || len(got[1].Items) == 0 {
		t.Fatal("items must be loaded")
	}
	none, err := e.orders.MerchantOrders(ctx, "u-nobody")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("want none, got %d", len(none))
	}
}

func TestListUserOrders_Paging(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "A", "1.00", 10)
	for i := 0; i < 3; i++ {
		e.add(t, "u-alice", p.ID, 1)
		if _, err := e.orders.Checkout(ctx, "u-alice"); err != nil {
			t.Fatal(err)
		}
	}
	first, err := e.orders.ListUserOrders(ctx, "u-alice", 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.orders.ListUserOrders(ctx, "u-alice", 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 || len(second) != 1 {
		t.Fatalf("bad pages: %d + %d", len(first), len(second))
	}
	if first[0].CreatedAt.Before(first[1].CreatedAt) {
		t.Fatal("orders must be newest first")
	}
}

func TestViewOrder_OwnerOrAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "A", "1.00", 10)
	e.add(t, "u-alice", p.ID, 1)
	o, err := e.orders.Checkout(ctx, "u-alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.orders.ViewOrder(ctx, o.ID, e.user(t, "u-alice")); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := e.orders.ViewOrder(ctx, o.ID, e.user(t, "u-admin")); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if _, err := e.orders.ViewOrder(ctx, o.ID, e.user(t, "u-seller")); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("stranger: want ErrForbidden, got %v", err)
	}
}
