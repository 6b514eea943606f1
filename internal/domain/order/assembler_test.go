package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/cart"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/coupon"
	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID    map[string]*product.Product
	getErr  error
	queries int
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	m.queries++
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make([]product.Product, 0, len(ids))
	seen := make(map[string]bool)
	for _, id := range ids {
		if p, ok := m.byID[id]; ok && !seen[id] {
			out = append(out, *p)
			seen[id] = true
		}
	}
	return out, nil
}

type mockEvaluator struct {
	result *coupon.Result
	err    error
	calls  int
}

func (m *mockEvaluator) Evaluate(_ context.Context, _ string, _ decimal.Decimal, _ string) (*coupon.Result, error) {
	m.calls++
	return m.result, m.err
}

// --- Helpers ---

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestProduct(id, name string, price string, stock int, offer *product.Offer) product.Product {
	return product.Product{
		ID:    id,
		Name:  name,
		Brand: "Leather Luxe",
		Price: decimal.RequireFromString(price),
		Variants: []product.Variant{
			{Size: "M", Color: "brown", Stock: stock},
		},
		Offer: offer,
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{byID: byID}
}

func newAssembler(products product.Repository, coupons CouponEvaluator, taxRate string) *Assembler {
	a := NewAssembler(products, coupons, decimal.RequireFromString(taxRate), nil)
	a.now = func() time.Time { return fixedNow }
	return a
}

func item(productID string, qty int) cart.Item {
	return cart.Item{ProductID: productID, Size: "M", Color: "brown", Quantity: qty}
}

// --- Tests ---

func TestAssemble_EmptyCart(t *testing.T) {
	a := newAssembler(newProductRepo(), &mockEvaluator{}, "0")

	_, err := a.Assemble(context.Background(), "u1", nil, "", decimal.Zero)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestAssemble_InvalidQuantity(t *testing.T) {
	p := newTestProduct("p1", "Belt", "500", 10, nil)
	a := newAssembler(newProductRepo(p), &mockEvaluator{}, "0")

	_, err := a.Assemble(context.Background(), "u1", []cart.Item{item("p1", 0)}, "", decimal.Zero)

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
}

func TestAssemble_ProductGone(t *testing.T) {
	a := newAssembler(newProductRepo(), &mockEvaluator{}, "0")

	_, err := a.Assemble(context.Background(), "u1", []cart.Item{item("deleted", 1)}, "", decimal.Zero)

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "deleted", pnfErr.ProductID)
}

func TestAssemble_UnknownVariant(t *testing.T) {
	p := newTestProduct("p1", "Belt", "500", 10, nil)
	a := newAssembler(newProductRepo(p), &mockEvaluator{}, "0")

	_, err := a.Assemble(context.Background(), "u1", []cart.Item{
		{ProductID: "p1", Size: "XXL", Color: "pink", Quantity: 1},
	}, "", decimal.Zero)

	var uvErr *UnknownVariantError
	require.ErrorAs(t, err, &uvErr)
}

func TestAssemble_InsufficientStock(t *testing.T) {
	p := newTestProduct("p1", "Belt", "500", 2, nil)
	a := newAssembler(newProductRepo(p), &mockEvaluator{}, "0")

	_, err := a.Assemble(context.Background(), "u1", []cart.Item{item("p1", 3)}, "", decimal.Zero)

	var isErr *InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, 3, isErr.Requested)
	assert.Equal(t, 2, isErr.Available)
}

// Spec scenario: price 1000, 10% offer, quantity 2 -> line total 1800.00.
func TestAssemble_PercentageOfferLine(t *testing.T) {
	offer := &product.Offer{Active: true, Kind: product.OfferPercentage, Value: decimal.NewFromInt(10)}
	p := newTestProduct("p1", "Tote", "1000", 5, offer)
	a := newAssembler(newProductRepo(p), &mockEvaluator{}, "0")

	q, err := a.Assemble(context.Background(), "u1", []cart.Item{item("p1", 2)}, "", decimal.Zero)
	require.NoError(t, err)

	require.Len(t, q.Lines, 1)
	assert.True(t, decimal.RequireFromString("1800.00").Equal(q.Lines[0].LineTotal))
	assert.True(t, decimal.RequireFromString("1800.00").Equal(q.ItemsSubtotal))
	assert.True(t, q.Lines[0].OfferApplied)
}

// Spec scenario: fixed 200 coupon on 1800 -> discount 200, tax on 1600.
func TestAssemble_FixedCouponAndTax(t *testing.T) {
	offer := &product.Offer{Active: true, Kind: product.OfferPercentage, Value: decimal.NewFromInt(10)}
	p := newTestProduct("p1", "Tote", "1000", 5, offer)
	ev := &mockEvaluator{result: &coupon.Result{Code: "FLAT200", Discount: decimal.NewFromInt(200)}}
	a := newAssembler(newProductRepo(p), ev, "10")

	q, err := a.Assemble(context.Background(), "u1", []cart.Item{item("p1", 2)}, "FLAT200", decimal.NewFromInt(49))
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("200").Equal(q.CouponDiscount))
	// tax = 10% of (1800 - 200)
	assert.True(t, decimal.RequireFromString("160.00").Equal(q.TaxAmount), "got tax %s", q.TaxAmount)
	// final = 1600 + 160 + 49
	assert.True(t, decimal.RequireFromString("1809.00").Equal(q.FinalTotal), "got final %s", q.FinalTotal)
}

func TestAssemble_InvalidCouponFailsWholeAssembly(t *testing.T) {
	p := newTestProduct("p1", "Belt", "500", 10, nil)
	ev := &mockEvaluator{err: coupon.ErrExpired}
	a := newAssembler(newProductRepo(p), ev, "0")

	_, err := a.Assemble(context.Background(), "u1", []cart.Item{item("p1", 1)}, "OLD", decimal.Zero)
	require.ErrorIs(t, err, coupon.ErrExpired)
}

func TestAssemble_FreeShippingWaivesFee(t *testing.T) {
	p := newTestProduct("p1", "Belt", "500", 10, nil)
	ev := &mockEvaluator{result: &coupon.Result{Code: "SHIPFREE", Discount: decimal.Zero, FreeShipping: true}}
	a := newAssembler(newProductRepo(p), ev, "0")

	q, err := a.Assemble(context.Background(), "u1", []cart.Item{item("p1", 1)}, "SHIPFREE", decimal.NewFromInt(99))
	require.NoError(t, err)

	assert.True(t, q.DeliveryFee.IsZero())
	assert.True(t, decimal.RequireFromString("500.00").Equal(q.FinalTotal))
}

func TestAssemble_DisplayedPriceIgnored(t *testing.T) {
	p := newTestProduct("p1", "Belt", "500", 10, nil)
	a := newAssembler(newProductRepo(p), &mockEvaluator{}, "0")

	stale := item("p1", 1)
	stale.DisplayedPrice = decimal.NewFromInt(1) // client claims it saw 1

	q, err := a.Assemble(context.Background(), "u1", []cart.Item{stale}, "", decimal.Zero)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("500.00").Equal(q.FinalTotal))
}

// Calling Assemble twice with unchanged backing state yields identical quotes
// and touches no counters.
func TestAssemble_Idempotent(t *testing.T) {
	offer := &product.Offer{Active: true, Kind: product.OfferPercentage, Value: decimal.NewFromInt(10)}
	p := newTestProduct("p1", "Tote", "1000", 5, offer)
	ev := &mockEvaluator{result: &coupon.Result{Code: "FLAT200", Discount: decimal.NewFromInt(200)}}
	a := newAssembler(newProductRepo(p), ev, "10")

	items := []cart.Item{item("p1", 2)}
	q1, err := a.Assemble(context.Background(), "u1", items, "FLAT200", decimal.NewFromInt(49))
	require.NoError(t, err)
	q2, err := a.Assemble(context.Background(), "u1", items, "FLAT200", decimal.NewFromInt(49))
	require.NoError(t, err)

	assert.True(t, q1.FinalTotal.Equal(q2.FinalTotal))
	assert.Equal(t, q1.Fingerprint, q2.Fingerprint)
	assert.Equal(t, 2, ev.calls, "evaluation is read-only, both calls hit the repo")
}

func TestAssemble_FingerprintChangesWithCart(t *testing.T) {
	p1 := newTestProduct("p1", "Belt", "500", 10, nil)
	p2 := newTestProduct("p2", "Wallet", "800", 10, nil)
	a := newAssembler(newProductRepo(p1, p2), &mockEvaluator{}, "0")

	q1, err := a.Assemble(context.Background(), "u1", []cart.Item{item("p1", 1)}, "", decimal.Zero)
	require.NoError(t, err)
	q2, err := a.Assemble(context.Background(), "u1", []cart.Item{item("p1", 2)}, "", decimal.Zero)
	require.NoError(t, err)
	q3, err := a.Assemble(context.Background(), "u1", []cart.Item{item("p2", 1)}, "", decimal.Zero)
	require.NoError(t, err)

	assert.NotEqual(t, q1.Fingerprint, q2.Fingerprint)
	assert.NotEqual(t, q1.Fingerprint, q3.Fingerprint)
}

// Round-trip law: the stored totals must be re-derivable from the frozen lines.
func TestAssemble_TotalsRecomputableFromLines(t *testing.T) {
	offer := &product.Offer{Active: true, Kind: product.OfferFixed, Value: decimal.NewFromInt(150)}
	p1 := newTestProduct("p1", "Tote", "1000", 5, offer)
	p2 := newTestProduct("p2", "Wallet", "799.50", 5, nil)
	ev := &mockEvaluator{result: &coupon.Result{Code: "OFF10", Discount: decimal.RequireFromString("254.95")}}
	a := newAssembler(newProductRepo(p1, p2), ev, "18")

	q, err := a.Assemble(context.Background(), "u1",
		[]cart.Item{item("p1", 2), item("p2", 1)}, "OFF10", decimal.NewFromInt(49))
	require.NoError(t, err)

	sum := decimal.Zero
	for _, l := range q.Lines {
		sum = sum.Add(l.LineTotal)
	}
	assert.True(t, sum.Equal(q.ItemsSubtotal))

	recomputed := q.ItemsSubtotal.Sub(q.CouponDiscount).Add(q.TaxAmount).Add(q.DeliveryFee).Round(2)
	assert.True(t, recomputed.Equal(q.FinalTotal),
		"final %s != recomputed %s", q.FinalTotal, recomputed)
}
