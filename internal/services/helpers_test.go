package services_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"

	"gitshop/internal/domain"
	"gitshop/internal/repos"
	"gitshop/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type env struct {
	db      *sqlx.DB
	users   *repos.UserRepo
	catalog *services.CatalogService
	cart    *services.CartService
	inv     *services.InventoryService
	orders  *services.OrderService
	docs    *fakeDocs
	events  *fakeEvents
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	users := repos.NewUserRepo(db)
	docs := &fakeDocs{}
	evs := &fakeEvents{}
	orders := services.NewOrderService(db, docs, users)
	orders.Events = evs
	inv := services.NewInventoryService(db)
	inv.Events = evs
	return &env{
		db:      db,
		users:   users,
		catalog: services.NewCatalogService(repos.NewCategoryRepo(db), repos.NewProductRepo(db)),
		cart:    services.NewCartService(db),
		inv:     inv,
		orders:  orders,
		docs:    docs,
		events:  evs,
	}
}

func (e *env) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := e.users.ByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

// product creates a product owned by the seeded seller.
func (e *env) product(t *testing.T, name, price string, stock int) *domain.Product {
	t.Helper()
	p, err := e.catalog.Create(context.Background(), e.user(t, "u-seller"), services.ProductInput{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: "test",
		Stock:    stock,
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func (e *env) add(t *testing.T, userID, productID string, qty int) *domain.Cart {
	t.Helper()
	c, err := e.cart.Add(context.Background(), userID, services.AddItem{ProductID: productID, Quantity: qty})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func (e *env) stock(t *testing.T, productID string) int {
	t.Helper()
	n, err := e.inv.Stock(context.Background(), productID)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

type fakeDocs struct {
	mu    sync.Mutex
	err   error
	calls int
	email string
}

func (f *fakeDocs) GenerateInvoice(_ context.Context, inv *domain.Invoice, _ *domain.Order, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.email = email
	if f.err != nil {
		return "", f.err
	}
	return "invoices/pdfs/" + inv.ID + ".pdf", nil
}

type published struct {
	topic, key string
	payload    any
}

type fakeEvents struct {
	mu   sync.Mutex
	sent []published
}

func (f *fakeEvents) Publish(_ context.Context, topic, key string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{topic, key, payload})
	return nil
}

func (f *fakeEvents) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.sent {
		out = append(out, p.topic)
	}
	return out
}

type fakeNotifier struct {
	err   error
	calls int
}

func (f *fakeNotifier) OrderPlaced(context.Context, *domain.Order, *domain.Invoice, string) error {
	f.calls++
	return f.err
}

var errBoom = errors.New("boom")
