package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawkart/backend/internal/resilience"
)

// Gateway talks to a Razorpay-style payment API. Signatures are HMAC-SHA256
// over "orderRef|paymentId" with the key secret, hex encoded.
type Gateway struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	HTTP      *resilience.HTTPClient
	IntentTTL time.Duration
}

// CreateIntent opens an order with the gateway. Without a BaseURL it
// synthesises a deterministic intent so local and test setups can drive the
// rest of the flow offline.
func (g Gateway) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if strings.TrimSpace(req.OrderRef) == "" {
		return Intent{}, errors.New("order ref is required")
	}
	if !req.Amount.IsPositive() {
		return Intent{}, errors.New("amount must be positive")
	}
	ttl := g.IntentTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	if strings.TrimSpace(g.BaseURL) == "" || g.HTTP == nil {
		return Intent{
			ID:        "intent_" + uuid.NewString(),
			Amount:    req.Amount,
			Currency:  req.Currency,
			ExpiresAt: time.Now().Add(ttl),
		}, nil
	}

	// Gateways take the amount in minor units.
	payload := map[string]any{
		"amount":   req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"currency": req.Currency,
		"receipt":  req.OrderRef,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Intent{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(g.BaseURL, "/")+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Intent{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(g.KeyID, g.KeySecret)

	resp, err := g.HTTP.Do(ctx, httpReq)
	if err != nil {
		return Intent{}, fmt.Errorf("gateway create order: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Intent{}, fmt.Errorf("gateway create order: %s", resp.Status)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Intent{}, err
	}
	return Intent{
		ID:        out.ID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// VerifySignature recomputes the callback signature and compares in
// constant time.
func (g Gateway) VerifySignature(orderRef, paymentID, signature string) bool {
	if g.KeySecret == "" || orderRef == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(g.KeySecret))
	mac.Write([]byte(orderRef + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
