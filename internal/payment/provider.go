package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// IntentRequest captures the information required to open a payment intent
// with the gateway.
type IntentRequest struct {
	OrderRef string
	Amount   decimal.Decimal
	Currency string
}

// Intent is the gateway-side handle the client pays against.
type Intent struct {
	ID        string
	Amount    decimal.Decimal
	Currency  string
	ExpiresAt time.Time
}

// Provider abstracts the upstream payment gateway.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	// VerifySignature checks the gateway's callback signature for the
	// given order reference and payment id.
	VerifySignature(orderRef, paymentID, signature string) bool
}
