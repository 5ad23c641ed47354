package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pawkart/backend/internal/checkout"
	"github.com/pawkart/backend/internal/coupon"
	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/repo"
)

// Handler exposes cart endpoints. All routes resolve identity from the
// request context: an authenticated user id or the guest session cookie.
type Handler struct {
	Svc      *Service
	Quoter   *checkout.Service
	Validate *validator.Validate
}

type addItemRequest struct {
	ProductID    string  `json:"productId" validate:"required"`
	VariantID    *string `json:"variantId"`
	Qty          int32   `json:"qty" validate:"required,min=1"`
	ComboOfferID *string `json:"comboOfferId"`
	DeliveryDate *string `json:"deliveryDate" validate:"omitempty,datetime=2006-01-02"`
}

type setQtyRequest struct {
	Qty int32 `json:"qty"`
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// Get handles GET /api/v1/cart: the cart plus its priced totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "identity required", nil)
		return
	}
	cart, err := h.Svc.Ensure(r.Context(), identity)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load cart", nil)
		return
	}
	h.respond(w, r, identity, cart)
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "identity required", nil)
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	cart, err := h.Svc.AddItem(r.Context(), identity, AddItemParams{
		ProductID:    req.ProductID,
		VariantID:    req.VariantID,
		Qty:          req.Qty,
		ComboOfferID: req.ComboOfferID,
		DeliveryDate: req.DeliveryDate,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, r, identity, cart)
}

// SetQty handles PATCH /api/v1/cart/items/{itemID}.
func (h *Handler) SetQty(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "identity required", nil)
		return
	}
	var req setQtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	cart, err := h.Svc.SetQty(r.Context(), identity, chi.URLParam(r, "itemID"), req.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, r, identity, cart)
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemID}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "identity required", nil)
		return
	}
	cart, err := h.Svc.RemoveItem(r.Context(), identity, chi.URLParam(r, "itemID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, r, identity, cart)
}

// ApplyCoupon handles POST /api/v1/cart/coupon.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "identity required", nil)
		return
	}
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	cart, err := h.Svc.ApplyCoupon(r.Context(), identity, req.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, r, identity, cart)
}

// RemoveCoupon handles DELETE /api/v1/cart/coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "identity required", nil)
		return
	}
	cart, err := h.Svc.RemoveCoupon(r.Context(), identity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, r, identity, cart)
}

// Merge handles POST /api/v1/cart/merge after sign-in.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok || !identity.Authenticated() {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign-in required", nil)
		return
	}
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "sessionId is required", nil)
		return
	}
	if err := h.Svc.MergeGuest(r.Context(), req.SessionID, identity.UserID); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to merge cart", nil)
		return
	}
	cart, err := h.Svc.Ensure(r.Context(), identity)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load cart", nil)
		return
	}
	h.respond(w, r, identity, cart)
}

// respond returns the cart with totals when it has items, or the bare cart
// when empty.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, identity common.Identity, cart repo.Cart) {
	payload := map[string]any{"cart": cartPayload(cart)}
	if len(cart.Items) > 0 {
		q, err := h.Quoter.QuoteCart(r.Context(), identity)
		if err == nil {
			payload["totals"] = map[string]any{
				"subtotal":                 q.Totals.Subtotal,
				"comboDiscount":            q.Totals.ComboDiscount,
				"couponDiscount":           q.Totals.CouponDiscount,
				"shipping":                 q.Totals.Shipping,
				"shippingIsEstimate":       q.Totals.ShippingIsEstimate,
				"hasMultipleDeliveryDates": q.Totals.HasMultipleDeliveryDates,
				"total":                    q.Totals.Total,
			}
			if q.CouponError != nil {
				payload["couponError"] = q.CouponError.Error()
			}
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": payload})
}

func cartPayload(cart repo.Cart) map[string]any {
	items := make([]map[string]any, 0, len(cart.Items))
	for _, it := range cart.Items {
		entry := map[string]any{
			"id":        it.ID,
			"productId": it.ProductID,
			"qty":       it.Qty,
		}
		if it.VariantID != nil {
			entry["variantId"] = *it.VariantID
		}
		if it.ComboOfferID != nil {
			entry["comboOfferId"] = *it.ComboOfferID
		}
		if it.DeliveryDate != nil {
			entry["deliveryDate"] = *it.DeliveryDate
		}
		items = append(items, entry)
	}
	payload := map[string]any{"id": cart.ID, "items": items}
	if cart.CouponCode != nil {
		payload["couponCode"] = *cart.CouponCode
	}
	return payload
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrStaleOffer):
		common.JSONError(w, http.StatusUnprocessableEntity, "NOT_ELIGIBLE", err.Error(), nil)
	case errors.Is(err, ErrProductNotFound), errors.Is(err, repo.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, checkout.ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart is empty", nil)
	case errors.Is(err, coupon.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrUsageLimitReached),
		errors.Is(err, coupon.ErrAlreadyUsed),
		errors.Is(err, coupon.ErrMinimumSpendUnmet),
		errors.Is(err, coupon.ErrMinimumQuantityUnmet):
		common.JSONError(w, http.StatusUnprocessableEntity, "NOT_ELIGIBLE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart operation failed", nil)
	}
}
