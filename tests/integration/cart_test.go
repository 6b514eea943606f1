//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCart_AddAndGet(t *testing.T) {
	user := "cart-user-1"
	fillCart(t, user,
		cartItemRequest{ProductID: "tote-classic", Size: "M", Color: "brown", Quantity: 2},
		cartItemRequest{ProductID: "belt-heritage", Size: "34", Color: "tan", Quantity: 1},
	)

	resp := do(t, http.MethodGet, "/api/cart", nil, user)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	items := decodeJSON[[]cartItemResponse](t, resp)
	if len(items) != 2 {
		t.Fatalf("expected 2 cart lines, got %d", len(items))
	}
	if items[0].ProductID != "tote-classic" || items[0].Quantity != 2 {
		t.Errorf("first line: got %+v", items[0])
	}
}

func TestCart_UpsertReplacesQuantity(t *testing.T) {
	user := "cart-user-2"
	fillCart(t, user,
		cartItemRequest{ProductID: "wallet-slim", Size: "", Color: "brown", Quantity: 1},
	)

	resp := do(t, http.MethodPut, "/api/cart",
		cartItemRequest{ProductID: "wallet-slim", Size: "", Color: "brown", Quantity: 3}, user)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	items := decodeJSON[[]cartItemResponse](t, do(t, http.MethodGet, "/api/cart", nil, user))
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("expected one line with quantity 3, got %+v", items)
	}
}

func TestCart_RemoveLine(t *testing.T) {
	user := "cart-user-3"
	fillCart(t, user,
		cartItemRequest{ProductID: "tote-classic", Size: "M", Color: "brown", Quantity: 1},
		cartItemRequest{ProductID: "belt-heritage", Size: "34", Color: "tan", Quantity: 1},
	)

	resp := do(t, http.MethodDelete, "/api/cart?product_id=tote-classic&size=M&color=brown", nil, user)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	items := decodeJSON[[]cartItemResponse](t, do(t, http.MethodGet, "/api/cart", nil, user))
	if len(items) != 1 || items[0].ProductID != "belt-heritage" {
		t.Fatalf("expected only belt line, got %+v", items)
	}
}

func TestCart_RejectsUnknownVariant(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/cart",
		cartItemRequest{ProductID: "tote-classic", Size: "XXL", Color: "pink", Quantity: 1}, "cart-user-4")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCart_RejectsZeroQuantity(t *testing.T) {
	resp := do(t, http.MethodPost, "/api/cart",
		cartItemRequest{ProductID: "tote-classic", Size: "M", Color: "brown", Quantity: 0}, "cart-user-5")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCart_IsolatedPerUser(t *testing.T) {
	fillCart(t, "cart-user-6",
		cartItemRequest{ProductID: "tote-classic", Size: "M", Color: "brown", Quantity: 1})

	items := decodeJSON[[]cartItemResponse](t, do(t, http.MethodGet, "/api/cart", nil, "cart-user-7"))
	if len(items) != 0 {
		t.Fatalf("expected empty cart for other user, got %+v", items)
	}
}
