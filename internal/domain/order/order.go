package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod distinguishes gateway-settled orders from pay-on-delivery.
type PaymentMethod string

const (
	PaymentGateway        PaymentMethod = "gateway"
	PaymentCashOnDelivery PaymentMethod = "cod"
)

// PaymentStatus tracks the money side of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// FulfillmentStatus tracks the goods side of an order. Orders are never
// deleted; cancellation is a status transition.
type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "pending"
	FulfillmentConfirmed  FulfillmentStatus = "confirmed"
	FulfillmentProcessing FulfillmentStatus = "processing"
	FulfillmentShipped    FulfillmentStatus = "shipped"
	FulfillmentDelivered  FulfillmentStatus = "delivered"
	FulfillmentCancelled  FulfillmentStatus = "cancelled"
	// FulfillmentReconciliation flags an order whose payment was captured but
	// whose commit lost a stock or coupon race. A downstream refund/backorder
	// workflow picks these up; they must never be silently dropped.
	FulfillmentReconciliation FulfillmentStatus = "reconciliation"
)

// Line is a frozen copy of everything needed to re-derive the charge later:
// product identity, the variant selection, and the unit price with the offer
// state that produced it.
type Line struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	ImageURL     string          `json:"image_url"`
	Size         string          `json:"size"`
	Color        string          `json:"color"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
	OfferApplied bool            `json:"offer_applied"`
}

// Order is the durable record of a committed purchase. Invariant:
// FinalTotal = ItemsSubtotal - CouponDiscount + TaxAmount + DeliveryFee,
// recomputable from Lines at any later time.
type Order struct {
	ID                string
	UserID            string
	Lines             []Line
	ItemsSubtotal     decimal.Decimal
	CouponCode        string
	CouponDiscount    decimal.Decimal
	TaxAmount         decimal.Decimal
	DeliveryFee       decimal.Decimal
	FinalTotal        decimal.Decimal
	PaymentMethod     PaymentMethod
	PaymentStatus     PaymentStatus
	FulfillmentStatus FulfillmentStatus
	GatewayOrderRef   string
	GatewayPaymentID  string
	GatewaySignature  string
	CreatedAt         time.Time
}

// ErrEmptyCart is returned when there is nothing to price or commit.
var ErrEmptyCart = fmt.Errorf("cart is empty")

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ProductNotFoundError indicates a cart line referencing a product that no
// longer exists in the catalog.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// UnknownVariantError indicates a size/color selection the product does not have.
type UnknownVariantError struct {
	ProductID, Size, Color string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("product %s has no variant %s/%s", e.ProductID, e.Size, e.Color)
}

// InsufficientStockError indicates the requested quantity exceeds current
// stock for the selected variant. Partial fulfillment is not supported, so
// the caller must resolve the quantity and retry.
type InsufficientStockError struct {
	ProductID, Size, Color string
	Requested, Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (%s/%s): requested %d, available %d",
		e.ProductID, e.Size, e.Color, e.Requested, e.Available)
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create inserts an order record with no other side effects. Used for
	// reconciliation-flagged orders; regular commits go through Committer.
	Create(ctx context.Context, o *Order) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// CountCouponRedemptions backs the coupon evaluator's per-user cap.
	CountCouponRedemptions(ctx context.Context, userID, code string) (int, error)
}

// Committer applies the commit-time side effects as one logical transaction:
// stock decrements (conditional on remaining stock), coupon usage increment
// plus a redemption row (conditional on remaining limit), the order insert,
// and the cart clear. All of them succeed or none do. Losing a race surfaces
// as InsufficientStockError or the coupon limit sentinels, never as a
// corrupted count.
type Committer interface {
	Commit(ctx context.Context, o *Order) error
}
