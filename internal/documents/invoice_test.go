package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"gitshop/internal/domain"

	"github.com/shopspring/decimal"
)

func sampleInvoice() (*domain.Invoice, *domain.Order) {
	o := &domain.Order{
		ID:          "ord-1",
		UserID:      "u-1",
		TotalAmount: decimal.RequireFromString("59.98"),
		Currency:    "USD",
		Items: []domain.OrderItem{
			{ProductID: "p-1", Quantity: 2, PriceAtPurchase: decimal.RequireFromString("29.99"), ProductName: "Wireless Mouse"},
		},
	}
	inv := &domain.Invoice{
		ID:        "inv-1",
		OrderID:   o.ID,
		UserID:    o.UserID,
		Amount:    o.TotalAmount,
		Currency:  "USD",
		Status:    "PAID",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	return inv, o
}

func TestInvoiceGenerator_WritesPDF(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	g := NewInvoiceGenerator(store)
	inv, o := sampleInvoice()

	loc, err := g.GenerateInvoice(context.Background(), inv, o, "buyer@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if loc != "invoices/pdfs/inv-1.pdf" {
		t.Fatalf("unexpected locator %q", loc)
	}
	rc, err := store.Open(context.Background(), loc)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("not a pdf: %q", b[:min(len(b), 8)])
	}
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()
	for _, loc := range []string{"../etc/passwd", "/etc/passwd", "invoices/%2e%2e/x", ""} {
		if _, err := store.Open(ctx, loc); !errors.Is(err, ErrBadLocator) {
			t.Errorf("Open(%q): want ErrBadLocator, got %v", loc, err)
		}
		if _, err := store.Put(ctx, loc, "", []byte("x")); !errors.Is(err, ErrBadLocator) {
			t.Errorf("Put(%q): want ErrBadLocator, got %v", loc, err)
		}
	}
}

func TestLocalStore_Missing(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	if _, err := store.Open(context.Background(), "invoices/pdfs/nope.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
