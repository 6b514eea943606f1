//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := do(t, http.MethodGet, "/api/products", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 5 {
		t.Fatalf("expected 5 products, got %d", len(products))
	}
}

func TestGetProduct(t *testing.T) {
	resp := do(t, http.MethodGet, "/api/products/tote-classic", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	p := decodeJSON[productResponse](t, resp)
	if p.Name != "Classic Leather Tote" {
		t.Errorf("name: got %q", p.Name)
	}
	if p.Price != "1000.00" {
		t.Errorf("price: got %q, want 1000.00", p.Price)
	}
	if len(p.Variants) != 3 {
		t.Errorf("variants: got %d, want 3", len(p.Variants))
	}
	if p.Offer == nil || p.Offer.Kind != "percentage" {
		t.Errorf("expected active percentage offer, got %+v", p.Offer)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := do(t, http.MethodGet, "/api/products/no-such-product", nil, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
