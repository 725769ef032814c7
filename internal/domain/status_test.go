package domain_test

import (
	"errors"
	"testing"

	"gitshop/internal/domain"
)

func TestParseItemStatus(t *testing.T) {
	for _, s := range []string{"pending", "accepted", "packing", "out_for_delivery", "delivered", "cancelled"} {
		if _, err := domain.ParseItemStatus(s); err != nil {
			t.Fatalf("%s should be settable: %v", s, err)
		}
	}
	for _, s := range []string{"completed", "shipped", "", "DELIVERED"} {
		_, err := domain.ParseItemStatus(s)
		var ise *domain.InvalidStatusError
		if !errors.As(err, &ise) {
			t.Fatalf("%q: want InvalidStatusError, got %v", s, err)
		}
	}
}

func TestTerminal(t *testing.T) {
	cases := map[domain.ItemStatus]bool{
		domain.ItemPending:        false,
		domain.ItemAccepted:       false,
		domain.ItemPacking:        false,
		domain.ItemOutForDelivery: false,
		domain.ItemDelivered:      true,
		domain.ItemCancelled:      true,
		domain.ItemCompleted:      true,
	}
	for st, want := range cases {
		if got := st.Terminal(); got != want {
			t.Fatalf("%s terminal=%v want %v", st, got, want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to domain.ItemStatus
		want     bool
	}{
		{domain.ItemPending, domain.ItemAccepted, true},
		{domain.ItemPending, domain.ItemDelivered, true},
		{domain.ItemPacking, domain.ItemCancelled, true},
		{domain.ItemPacking, domain.ItemPacking, true},
		{domain.ItemPacking, domain.ItemAccepted, false},
		{domain.ItemDelivered, domain.ItemCancelled, false},
		{domain.ItemCancelled, domain.ItemPending, false},
		{domain.ItemCompleted, domain.ItemDelivered, false},
	}
	for _, c := range cases {
		if got := domain.CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("%s -> %s: got %v want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestAllItemsTerminal(t *testing.T) {
	o := &domain.Order{Items: []domain.OrderItem{
		{Status: domain.ItemDelivered},
		{Status: domain.ItemPacking},
	}}
	if o.AllItemsTerminal() {
		t.Fatal("packing item should keep order open")
	}
	o.Items[1].Status = domain.ItemCompleted
	if !o.AllItemsTerminal() {
		t.Fatal("delivered+completed should be terminal")
	}
}
