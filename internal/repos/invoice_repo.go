package repos

import (
	"context"
	"database/sql"
	"errors"

	"gitshop/internal/domain"

	"github.com/jmoiron/sqlx"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

type InvoiceRepo struct{ db sqlx.ExtContext }

func NewInvoiceRepo(db *sqlx.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

func (r *InvoiceRepo) WithTx(tx *sqlx.Tx) *InvoiceRepo { return &InvoiceRepo{db: tx} }

func (r *InvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	_, err := exec(ctx, r.db, `
	  INSERT INTO invoices(id, order_id, user_id, amount, currency, status, created_at, pdf_url)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, inv.ID, inv.OrderID, inv.UserID, inv.Amount, inv.Currency, inv.Status, inv.CreatedAt, inv.PDFURL)
	return err
}

func (r *InvoiceRepo) ByOrder(ctx context.Context, orderID string) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := get(ctx, r.db, &inv, `
	  SELECT id, order_id, user_id, amount, currency, status, created_at, pdf_url
	  FROM invoices WHERE order_id = ?
	`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepo) SetPDFURL(ctx context.Context, invoiceID, url string) error {
	_, err := exec(ctx, r.db, `UPDATE invoices SET pdf_url = ? WHERE id = ?`, url, invoiceID)
	return err
}
