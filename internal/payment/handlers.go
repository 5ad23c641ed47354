package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pawkart/backend/internal/checkout"
	"github.com/pawkart/backend/internal/common"
)

// Handler exposes payment intent and verification endpoints.
type Handler struct {
	Svc      *Service
	Quoter   *checkout.Service
	Currency string
	Validate *validator.Validate
}

type verifyRequest struct {
	OrderRef  string `json:"orderRef" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// CreateIntent handles POST /api/v1/payments/intent. The amount comes from
// the server-side quote of the caller's cart, never from the client.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "identity required", nil)
		return
	}
	q, err := h.Quoter.QuoteCart(r.Context(), identity)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart is empty", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to quote cart", nil)
		return
	}
	intent, err := h.Svc.Provider.CreateIntent(r.Context(), IntentRequest{
		OrderRef: q.Cart.ID,
		Amount:   q.Totals.Total,
		Currency: h.Currency,
	})
	if err != nil {
		common.JSONError(w, http.StatusBadGateway, "GATEWAY", "failed to create payment intent", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{
		"intentId":  intent.ID,
		"amount":    intent.Amount,
		"currency":  intent.Currency,
		"expiresAt": intent.ExpiresAt,
	}})
}

// Verify handles POST /api/v1/payments/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if err := h.Svc.VerifyAndRecord(r.Context(), req.OrderRef, req.PaymentID, req.Signature); err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_SIGNATURE", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to record verification", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"verified": true}})
}
