package payment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrGatewayUnavailable covers gateway timeouts and transport failures. It is
// retryable: the client may have completed payment out-of-band and settlement
// is idempotent, so this is never treated as a payment failure.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Gateway is the external payment provider. CreateSession reserves a
// gateway-side order for exactly the given amount and returns its reference.
// VerifySignature checks the provider's proof-of-payment signature over
// (gatewayOrderRef, paymentID) using the shared secret.
type Gateway interface {
	CreateSession(ctx context.Context, amount decimal.Decimal, currency string) (string, error)
	VerifySignature(gatewayOrderRef, paymentID, signature string) bool
}
