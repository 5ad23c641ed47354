package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pawkart/backend/internal/checkout"
	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/coupon"
	"github.com/pawkart/backend/internal/repo"
)

// Handler exposes order endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type createRequest struct {
	GuestEmail string `json:"guestEmail" validate:"omitempty,email"`
	PaymentID  string `json:"paymentId"`
}

// Create handles POST /api/v1/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "identity required", nil)
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	created, err := h.Svc.Create(r.Context(), identity, CreateParams{
		GuestEmail: req.GuestEmail,
		PaymentID:  req.PaymentID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": orderPayload(created)})
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	orders, err := h.Svc.List(r.Context(), userID, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	items := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		items = append(items, orderPayload(o))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: page, PerPage: perPage},
	})
}

// Get handles GET /api/v1/orders/{orderID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	o, err := h.Svc.Get(r.Context(), chi.URLParam(r, "orderID"), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": orderPayload(o)})
}

// Cancel handles POST /api/v1/orders/{orderID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	if err := h.Svc.Cancel(r.Context(), chi.URLParam(r, "orderID"), userID); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"status": repo.OrderStatusCancelled}})
}

func orderPayload(o repo.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		entry := map[string]any{
			"productId":     it.ProductID,
			"productName":   it.ProductName,
			"qty":           it.Qty,
			"unitOriginal":  it.UnitOriginal,
			"unitEffective": it.UnitEffective,
			"hasDiscount":   it.HasDiscount,
		}
		if it.DeliveryDate != nil {
			entry["deliveryDate"] = *it.DeliveryDate
		}
		items = append(items, entry)
	}
	payload := map[string]any{
		"id":             o.ID,
		"status":         o.Status,
		"subtotal":       o.Subtotal,
		"comboDiscount":  o.ComboDiscount,
		"couponDiscount": o.CouponDiscount,
		"shipping":       o.Shipping,
		"gstAmount":      o.GSTAmount,
		"total":          o.Total,
		"currency":       o.Currency,
		"createdAt":      o.CreatedAt,
		"items":          items,
	}
	if o.CouponCode != nil {
		payload["couponCode"] = *o.CouponCode
	}
	return payload
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, checkout.ErrEmptyCart):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrGuestEmailRequired):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrPaymentNotVerified):
		common.JSONError(w, http.StatusPaymentRequired, "PAYMENT_REQUIRED", err.Error(), nil)
	case errors.Is(err, ErrCouponIneligible), errors.Is(err, coupon.ErrAlreadyUsed):
		common.JSONError(w, http.StatusUnprocessableEntity, "NOT_ELIGIBLE", err.Error(), nil)
	case errors.Is(err, checkout.ErrProductUnavailable):
		common.JSONError(w, http.StatusConflict, "PRODUCT_UNAVAILABLE", err.Error(), nil)
	case errors.Is(err, repo.ErrOrderNotCancellable):
		common.JSONError(w, http.StatusConflict, "NOT_CANCELLABLE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order operation failed", nil)
	}
}
