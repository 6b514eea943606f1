// Package gateway implements the payment gateway client. It talks the
// Razorpay-style orders API: sessions are created server-side for an exact
// amount, and payment proofs carry an HMAC-SHA256 signature over
// "<order_ref>|<payment_id>" keyed with the merchant secret.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/harshkanaujia28/leather-luxe-ecommerce-sub001/internal/domain/payment"
)

// Compile-time check ensuring Client satisfies the payment gateway interface.
var _ payment.Gateway = (*Client)(nil)

// Config holds the gateway credentials and endpoint.
type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// Client is an HTTP client for the gateway orders API.
type Client struct {
	http      *http.Client
	baseURL   string
	keyID     string
	keySecret []byte
}

// NewClient creates a gateway client with a bounded request timeout.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   cfg.BaseURL,
		keyID:     cfg.KeyID,
		keySecret: []byte(cfg.KeySecret),
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

// CreateSession registers an order with the gateway and returns its
// reference. The amount is converted to minor currency units as the gateway
// requires.
func (c *Client) CreateSession(ctx context.Context, amount decimal.Decimal, currency string) (string, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency: currency,
	})
	if err != nil {
		return "", errors.Wrap(err, "encode order request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build order request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, string(c.keySecret))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(payment.ErrGatewayUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", errors.Wrapf(payment.ErrGatewayUnavailable, "gateway returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", errors.Errorf("gateway rejected order: status %d", resp.StatusCode)
	}

	var out createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decode order response")
	}
	if out.ID == "" {
		return "", errors.New("gateway returned empty order id")
	}
	return out.ID, nil
}

// VerifySignature checks the payment proof: HMAC-SHA256 over
// "<order_ref>|<payment_id>" keyed with the merchant secret, hex encoded.
// Comparison is constant-time.
func (c *Client) VerifySignature(gatewayOrderRef, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, c.keySecret)
	fmt.Fprintf(mac, "%s|%s", gatewayOrderRef, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
