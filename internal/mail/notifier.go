package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"gitshop/internal/domain"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

type line struct {
	Name, Qty, Price, Total string
}

type orderPlacedView struct {
	OrderID     string
	InvoiceID   string
	Date        string
	Currency    string
	Total       string
	HasDocument bool
	Lines       []line
}

// OrderNotifier renders the order confirmation and hands it to a Sender.
type OrderNotifier struct {
	sender Sender
	views  *html.Engine
}

func NewOrderNotifier(sender Sender) (*OrderNotifier, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load mail templates: %w", err)
	}
	return &OrderNotifier{sender: sender, views: engine}, nil
}

// Render returns the HTML and plain-text bodies.
func (n *OrderNotifier) Render(o *domain.Order, inv *domain.Invoice) (string, string, error) {
	v := orderPlacedView{
		OrderID:     o.ID,
		InvoiceID:   inv.ID,
		Date:        o.CreatedAt.Format("2006-01-02 15:04"),
		Currency:    o.Currency,
		Total:       o.TotalAmount.StringFixed(2),
		HasDocument: inv.PDFURL != "",
	}
	var text strings.Builder
	fmt.Fprintf(&text, "Thanks for your order %s.\n\n", o.ID)
	for _, it := range o.Items {
		l := line{
			Name:  it.ProductName,
			Qty:   strconv.Itoa(it.Quantity),
			Price: it.PriceAtPurchase.StringFixed(2),
			Total: it.Subtotal().StringFixed(2),
		}
		v.Lines = append(v.Lines, l)
		fmt.Fprintf(&text, "%s x%s  %s\n", l.Name, l.Qty, l.Total)
	}
	fmt.Fprintf(&text, "\nTotal: %s %s\nInvoice: %s\n", v.Total, v.Currency, v.InvoiceID)

	var buf bytes.Buffer
	if err := n.views.Render(&buf, "order_placed", v); err != nil {
		return "", "", err
	}
	return buf.String(), text.String(), nil
}

func (n *OrderNotifier) OrderPlaced(ctx context.Context, o *domain.Order, inv *domain.Invoice, email string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("no deliverable address for order %s", o.ID)
	}
	htmlBody, text, err := n.Render(o, inv)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, email, "Your GitShop order "+o.ID, text, htmlBody)
}
