package repos

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// OpenDB opens sqlite by default; postgres:// and postgresql:// DSNs go through pgx.
func OpenDB(dsn string) (*sqlx.DB, error) {
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// One connection: sqlite has a single writer, and :memory: is per-connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	// Seed demo catalog if empty
	if err := seedIfEmpty(db); err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	// Ensure demo users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return db, nil
}

// InTx runs fn in a transaction and commits when fn returns nil.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// forUpdate returns the row-lock suffix for drivers that support it.
// sqlite serializes writers on its single connection instead.
func forUpdate(q sqlx.ExtContext) string {
	if q.DriverName() == "pgx" {
		return " FOR UPDATE"
	}
	return ""
}

func get(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
}

func sel(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func exec(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, q.Rebind(query), args...)
}

func now() time.Time { return time.Now().UTC() }

func ensureSchema(db *sqlx.DB) error {
	if db.DriverName() == "sqlite" {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			return err
		}
	}
	// Money columns are TEXT so decimals round-trip exactly on both drivers.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('consumer','seller','admin')),
  phone_number TEXT,
  address TEXT,
  business_name TEXT,
  created_at TIMESTAMP NOT NULL
)`,

		`CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TIMESTAMP NOT NULL,
  expires_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,

		`CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  category TEXT NOT NULL,
  images_json TEXT NOT NULL DEFAULT '[]',
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_products_seller     ON products(seller_id)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category)`,
		`CREATE INDEX IF NOT EXISTS idx_products_name       ON products(LOWER(name))`,
		`CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at)`,

		`CREATE TABLE IF NOT EXISTS stock_adjustments(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  delta INTEGER NOT NULL,
  new_quantity INTEGER NOT NULL,
  reason TEXT NOT NULL,
  author TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_adjustments_product ON stock_adjustments(product_id)`,

		`CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  total TEXT NOT NULL DEFAULT '0',
  updated_at TIMESTAMP NOT NULL
)`,
		// No FK to products: a product deleted after add-to-cart must surface at checkout.
		`CREATE TABLE IF NOT EXISTS cart_items(
  cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  price TEXT,
  product_name TEXT,
  image TEXT,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL,
  PRIMARY KEY (cart_id, product_id)
)`,

		`CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  total_amount TEXT NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL,
  payment_id TEXT,
  pdf_url TEXT,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS order_items(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  price_at_purchase TEXT NOT NULL,
  product_name TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  PRIMARY KEY (order_id, position)
)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_seller  ON order_items(seller_id)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)`,

		`CREATE TABLE IF NOT EXISTS invoices(
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE REFERENCES orders(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  pdf_url TEXT NOT NULL DEFAULT ''
)`,

		`CREATE TABLE IF NOT EXISTS reviews(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  user_name TEXT NOT NULL,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  comment TEXT NOT NULL,
  images_json TEXT NOT NULL DEFAULT '[]',
  created_at TIMESTAMP NOT NULL,
  UNIQUE (product_id, user_id)
)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products")

	ts := now()
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	type p struct {
		ID, Name, Desc, Price, Category, Images string
		Stock                                   int
	}
	rows := []p{
		{"kbd-001", "Mechanical Keyboard", "Tenkeyless, brown switches", "89.00", "peripherals", `["products/kbd-001/main.jpg"]`, 12},
		{"mouse-001", "Wireless Mouse", "2.4GHz, 6 buttons", "29.99", "peripherals", `["products/mouse-001/main.jpg"]`, 30},
		{"mon-001", "27in Monitor", "1440p IPS panel", "249.50", "displays", `["products/mon-001/main.jpg"]`, 4},
		{"cable-001", "USB-C Cable", "2m braided", "9.99", "accessories", `[]`, 0},
	}
	for _, r := range rows {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO products(id, seller_id, name, description, price, currency, category, images_json, stock, created_at, updated_at)
			VALUES (?, 'u-seller', ?, ?, ?, 'USD', ?, ?, ?, ?, ?)`),
			r.ID, r.Name, r.Desc, r.Price, r.Category, r.Images, r.Stock, ts, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// seedUsers ensures a consumer, a seller and an admin exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) (u, error) {
		h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}, err
	}

	var users []u
	for _, x := range [][4]string{
		{"u-alice", "alice@gitshop.test", "Alice", "consumer"},
		{"u-seller", "seller@gitshop.test", "Sam Seller", "seller"},
		{"u-admin", "admin@gitshop.test", "Admin", "admin"},
	} {
		rec, err := mk(x[0], x[1], x[2], x[3], "Passw0rd!")
		if err != nil {
			return err
		}
		users = append(users, rec)
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	for _, x := range users {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO users(id, email, full_name, password_hash, role, created_at)
			VALUES(?, ?, ?, ?, ?, ?)
			ON CONFLICT(email) DO NOTHING
		`), x.ID, x.Email, x.Name, x.Hash, x.Role, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}
