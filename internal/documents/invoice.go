package documents

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"gitshop/internal/domain"

	"github.com/go-pdf/fpdf"
)

// InvoiceGenerator renders invoice PDFs and stores them at invoices/pdfs/<invoice id>.pdf.
type InvoiceGenerator struct {
	Store   Store
	Company string
}

func NewInvoiceGenerator(store Store) *InvoiceGenerator {
	return &InvoiceGenerator{Store: store, Company: "GitShop Inc."}
}

func InvoiceKey(invoiceID string) string { return "invoices/pdfs/" + invoiceID + ".pdf" }

func (g *InvoiceGenerator) GenerateInvoice(ctx context.Context, inv *domain.Invoice, o *domain.Order, email string) (string, error) {
	data, err := g.Render(inv, o, email)
	if err != nil {
		return "", err
	}
	return g.Store.Put(ctx, InvoiceKey(inv.ID), "application/pdf", data)
}

// Render lays out the invoice: header, billing block, item table and total.
func (g *InvoiceGenerator) Render(inv *domain.Invoice, o *domain.Order, email string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "INVOICE", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 10, tr(g.Company), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.CellFormat(0, 10, "Invoice ID: "+inv.ID, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 10, "Order ID: "+o.ID, "", 1, "", false, 0, "")
	pdf.CellFormat(0, 10, "Date: "+inv.CreatedAt.Format("2006-01-02 15:04:05"), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 10, tr("Billed To: "+email), "", 1, "", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(100, 10, "Item", "", 0, "", false, 0, "")
	pdf.CellFormat(30, 10, "Qty", "", 0, "", false, 0, "")
	pdf.CellFormat(30, 10, "Price", "", 0, "", false, 0, "")
	pdf.CellFormat(30, 10, "Total", "", 1, "", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	for _, it := range o.Items {
		name := it.ProductName
		if name == "" {
			name = "Product " + it.ProductID
		}
		pdf.CellFormat(100, 10, tr(name), "", 0, "", false, 0, "")
		pdf.CellFormat(30, 10, strconv.Itoa(it.Quantity), "", 0, "", false, 0, "")
		pdf.CellFormat(30, 10, money(inv.Currency, it.PriceAtPurchase.StringFixed(2)), "", 0, "", false, 0, "")
		pdf.CellFormat(30, 10, money(inv.Currency, it.Subtotal().StringFixed(2)), "", 1, "", false, 0, "")
	}
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(160, 10, "Total Amount:", "", 0, "R", false, 0, "")
	pdf.CellFormat(30, 10, money(inv.Currency, inv.Amount.StringFixed(2)), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.ID, err)
	}
	return buf.Bytes(), nil
}

func money(currency, amount string) string {
	if currency == "" || currency == "USD" {
		return "$" + amount
	}
	return amount + " " + currency
}
