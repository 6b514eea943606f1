//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Two totes at 1000 with the seeded 10% offer: unit 900, subtotal 1800,
// 10% tax on 1800 = 180, delivery 49.
func TestPreValidate_OfferApplied(t *testing.T) {
	user := "order-user-1"
	fillCart(t, user,
		cartItemRequest{ProductID: "tote-classic", Size: "M", Color: "brown", Quantity: 2})

	resp := do(t, http.MethodPost, "/api/payment/pre-validate", couponRequest{}, user)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	q := decodeJSON[quoteResponse](t, resp)
	if q.Lines[0].UnitPrice != "900.00" {
		t.Errorf("unit price: got %q, want 900.00", q.Lines[0].UnitPrice)
	}
	if q.ItemsSubtotal != "1800.00" {
		t.Errorf("subtotal: got %q, want 1800.00", q.ItemsSubtotal)
	}
	if q.TaxAmount != "180.00" {
		t.Errorf("tax: got %q, want 180.00", q.TaxAmount)
	}
	if q.FinalTotal != "2029.00" {
		t.Errorf("total: got %q, want 2029.00", q.FinalTotal)
	}
}

// FLAT200 on a 1800 cart: tax is 10% of the discounted 1600, so the total is
// 1600 + 160 + 49.
func TestPreValidate_WithCoupon(t *testing.T) {
	user := "order-user-2"
	fillCart(t, user,
		cartItemRequest{ProductID: "tote-classic", Size: "M", Color: "brown", Quantity: 2})

	resp := do(t, http.MethodPost, "/api/payment/pre-validate", couponRequest{CouponCode: "FLAT200"}, user)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	q := decodeJSON[quoteResponse](t, resp)
	if q.CouponDiscount != "200.00" {
		t.Errorf("discount: got %q, want 200.00", q.CouponDiscount)
	}
	if q.TaxAmount != "160.00" {
		t.Errorf("tax: got %q, want 160.00", q.TaxAmount)
	}
	if q.FinalTotal != "1809.00" {
		t.Errorf("total: got %q, want 1809.00", q.FinalTotal)
	}
}

func TestPreValidate_CouponBelowMinimum(t *testing.T) {
	user := "order-user-3"
	fillCart(t, user,
		cartItemRequest{ProductID: "belt-heritage", Size: "34", Color: "tan", Quantity: 1})

	resp := do(t, http.MethodPost, "/api/payment/pre-validate", couponRequest{CouponCode: "FLAT200"}, user)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPreValidate_UnknownCoupon(t *testing.T) {
	user := "order-user-4"
	fillCart(t, user,
		cartItemRequest{ProductID: "belt-heritage", Size: "34", Color: "tan", Quantity: 1})

	resp := do(t, http.MethodPost, "/api/payment/pre-validate", couponRequest{CouponCode: "NOPE1234"}, user)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_CashOnDelivery(t *testing.T) {
	user := "order-user-5"
	fillCart(t, user,
		cartItemRequest{ProductID: "belt-heritage", Size: "36", Color: "black", Quantity: 1})

	resp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{PaymentMethod: "cod"}, user)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	o := decodeJSON[orderResponse](t, resp)
	if !uuidPattern.MatchString(o.ID) {
		t.Errorf("order id is not a uuid: %q", o.ID)
	}
	if o.PaymentStatus != "pending" || o.PaymentMethod != "cod" {
		t.Errorf("payment: got %s/%s", o.PaymentMethod, o.PaymentStatus)
	}
	// 450 + 45 tax + 49 delivery.
	if o.FinalTotal != "544.00" {
		t.Errorf("total: got %q, want 544.00", o.FinalTotal)
	}

	// Commit clears the cart.
	items := decodeJSON[[]cartItemResponse](t, do(t, http.MethodGet, "/api/cart", nil, user))
	if len(items) != 0 {
		t.Errorf("expected empty cart after order, got %+v", items)
	}

	// And the order shows up in history.
	history := decodeJSON[[]orderResponse](t, do(t, http.MethodGet, "/api/orders", nil, user))
	if len(history) != 1 || history[0].ID != o.ID {
		t.Errorf("history: got %+v", history)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	user := "order-user-6"
	resp := do(t, http.MethodDelete, "/api/cart", nil, user)
	resp.Body.Close()

	resp = do(t, http.MethodPost, "/api/orders", placeOrderRequest{PaymentMethod: "cod"}, user)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	user := "order-user-7"
	// Rider jacket L/black is seeded with 4 units.
	fillCart(t, user,
		cartItemRequest{ProductID: "jacket-rider", Size: "L", Color: "black", Quantity: 50})

	resp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{PaymentMethod: "cod"}, user)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Message == "" {
		t.Error("expected an error message naming the shortage")
	}
}

// WELCOME10 is seeded with a per-user limit of one redemption.
func TestPlaceOrder_PerUserCouponLimit(t *testing.T) {
	user := "order-user-8"
	item := cartItemRequest{ProductID: "belt-heritage", Size: "32", Color: "tan", Quantity: 1}

	fillCart(t, user, item)
	resp := do(t, http.MethodPost, "/api/orders", placeOrderRequest{PaymentMethod: "cod", CouponCode: "WELCOME10"}, user)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first redemption: expected 201, got %d", resp.StatusCode)
	}

	fillCart(t, user, item)
	resp = do(t, http.MethodPost, "/api/orders", placeOrderRequest{PaymentMethod: "cod", CouponCode: "WELCOME10"}, user)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("second redemption: expected 422, got %d", resp.StatusCode)
	}
}
