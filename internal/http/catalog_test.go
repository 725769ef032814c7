package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"gitshop/internal/domain"
	"gitshop/internal/http/handlers"
	"gitshop/internal/services"
)

func TestProductSearchValidation(t *testing.T) {
	a := newApp(t, handlers.Options{})

	resp, body := a.do(t, "GET", "/api/v1/products/search?q=keyboard", "", nil)
	var res struct {
		Count    int `json:"count"`
		Products []struct {
			ID string `json:"id"`
		} `json:"products"`
	}
	decode(t, body, &res)
	if resp.StatusCode != http.StatusOK || res.Count != 1 || res.Products[0].ID != "kbd-001" {
		t.Fatalf("search: %d %s", resp.StatusCode, body)
	}

	entries := captureLogs(t, func() {
		if resp, _ := a.do(t, "GET", "/api/v1/products/search?q=%3Cscript%3E", "", nil); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("markup query: want 400, got %d", resp.StatusCode)
		}
	})
	if findLog(entries, "validation.fail") == nil {
		t.Fatalf("validation failure not logged: %+v", entries)
	}

	if resp, _ := a.do(t, "GET", "/api/v1/products/details/kbd-001", "", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("details: %d", resp.StatusCode)
	}
	if resp, _ := a.do(t, "GET", "/api/v1/products/details/nope-1", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing details: want 404, got %d", resp.StatusCode)
	}
}

func TestProductOwnership(t *testing.T) {
	a := newApp(t, handlers.Options{})
	seller := a.login(t, "seller@gitshop.test")
	alice := a.login(t, "alice@gitshop.test")

	in := map[string]any{"name": "USB Hub", "price": "19.90", "category": "peripherals", "stock": 3}
	if resp, _ := a.do(t, "POST", "/api/v1/products", alice, in); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("consumer create: want 403, got %d", resp.StatusCode)
	}
	resp, body := a.do(t, "POST", "/api/v1/products", seller, in)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seller create: %d %s", resp.StatusCode, body)
	}
	var p struct {
		ID    string `json:"id"`
		Stock int    `json:"stock"`
	}
	decode(t, body, &p)

	if resp, _ := a.do(t, "POST", "/api/v1/products", seller, map[string]any{"name": "Bad", "price": "1.001", "category": "x"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("sub-cent price: want 400, got %d", resp.StatusCode)
	}

	_, err := a.deps.AuthSvc.Register(context.Background(), services.Signup{
		Email: "other@example.com", Password: "Passw0rd!", FullName: "Other Shop", Role: domain.RoleSeller,
	})
	if err != nil {
		t.Fatal(err)
	}
	otherTok := a.login(t, "other@example.com")
	if resp, _ := a.do(t, "PUT", "/api/v1/products/"+p.ID, otherTok, in); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign seller update: want 403, got %d", resp.StatusCode)
	}
	if resp, _ := a.do(t, "POST", "/api/v1/inventory/adjust", otherTok, map[string]any{"product_id": p.ID, "delta": 5}); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign seller adjust: want 403, got %d", resp.StatusCode)
	}

	resp, body = a.do(t, "POST", "/api/v1/inventory/adjust", seller, map[string]any{"product_id": p.ID, "delta": -5, "reason": "recount"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("adjust below zero: want 409, got %d %s", resp.StatusCode, body)
	}
	resp, body = a.do(t, "POST", "/api/v1/inventory/adjust", seller, map[string]any{"product_id": p.ID, "delta": 4, "reason": "restock"})
	var adj struct {
		Stock int `json:"stock"`
	}
	decode(t, body, &adj)
	if resp.StatusCode != http.StatusOK || adj.Stock != 7 {
		t.Fatalf("restock: %d %s", resp.StatusCode, body)
	}

	resp, body = a.do(t, "GET", "/api/v1/inventory/"+p.ID+"/availability", "", nil)
	var av struct {
		Status string `json:"status"`
	}
	decode(t, body, &av)
	if av.Status != "IN_STOCK" {
		t.Fatalf("availability: %s", body)
	}

	if resp, _ := a.do(t, "DELETE", "/api/v1/products/"+p.ID, seller, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("owner delete: want 204, got %d", resp.StatusCode)
	}
}

func TestReviewsRequirePurchase(t *testing.T) {
	a := newApp(t, handlers.Options{})
	alice := a.login(t, "alice@gitshop.test")
	review := map[string]any{"product_id": "mouse-001", "rating": 4, "comment": "clicky"}

	if resp, _ := a.do(t, "POST", "/api/v1/reviews", alice, review); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("review before purchase: want 400, got %d", resp.StatusCode)
	}
	if resp, _ := a.do(t, "POST", "/api/v1/reviews", alice, map[string]any{"product_id": "mouse-001", "rating": 9}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("rating out of range: want 400, got %d", resp.StatusCode)
	}

	addToCart(t, a, alice, "mouse-001", 1)
	checkout(t, a, alice)
	if resp, body := a.do(t, "POST", "/api/v1/reviews", alice, review); resp.StatusCode != http.StatusCreated {
		t.Fatalf("review after purchase: %d %s", resp.StatusCode, body)
	}
	resp, body := a.do(t, "GET", "/api/v1/reviews/mouse-001", "", nil)
	var list []struct {
		Rating int `json:"rating"`
	}
	decode(t, body, &list)
	if resp.StatusCode != http.StatusOK || len(list) != 1 || list[0].Rating != 4 {
		t.Fatalf("reviews: %d %s", resp.StatusCode, body)
	}
}
