package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/pawkart/backend/internal/common"
)

// Creator persists admin-defined coupons.
type Creator interface {
	Create(ctx context.Context, c Coupon) error
}

// Handler exposes coupon validation and administrative endpoints.
type Handler struct {
	Svc      *Service
	Creator  Creator
	Validate *validator.Validate
}

type validateRequest struct {
	Code  string         `json:"code" validate:"required"`
	Items []validateItem `json:"items" validate:"required,min=1,dive"`
}

type validateItem struct {
	ProductID string          `json:"productId" validate:"required"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Qty       int             `json:"qty" validate:"min=1"`
}

type createRequest struct {
	Code         string           `json:"code" validate:"required,min=3,max=32"`
	Kind         string           `json:"kind" validate:"required,oneof=percentage fixed"`
	Amount       decimal.Decimal  `json:"amount"`
	ProductID    *string          `json:"productId"`
	MinCartTotal *decimal.Decimal `json:"minCartTotal"`
	MinQuantity  *int             `json:"minQuantity" validate:"omitempty,min=1"`
	MaxUses      *int             `json:"maxUses" validate:"omitempty,min=1"`
	ExpiresAt    *time.Time       `json:"expiresAt"`
	IsActive     *bool            `json:"isActive"`
}

// CheckCoupon handles POST /api/v1/coupons/validate. The caller sends the
// already-priced cart lines; a signed-in user's redemption history is
// consulted, guests are checked at order time instead.
func (h *Handler) CheckCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	items := make([]Item, 0, len(req.Items))
	totalQty := 0
	for _, it := range req.Items {
		items = append(items, Item{ProductID: it.ProductID, LineTotal: it.LineTotal})
		totalQty += it.Qty
	}

	identity, _ := common.IdentityFrom(r.Context())
	v, err := h.Svc.Validate(r.Context(), req.Code, identity.CouponKey(), items, totalQty)
	if err != nil {
		writeCouponError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"code":     v.Coupon.Code,
		"kind":     v.Coupon.Kind,
		"discount": v.Discount,
	}})
}

// Create handles POST /api/v1/admin/coupons.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if !req.Amount.IsPositive() {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "amount must be positive", nil)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	c := Coupon{
		Code:         NormalizeCode(req.Code),
		Kind:         Kind(req.Kind),
		Amount:       req.Amount,
		ProductID:    req.ProductID,
		MinCartTotal: req.MinCartTotal,
		MinQuantity:  req.MinQuantity,
		MaxUses:      req.MaxUses,
		ExpiresAt:    req.ExpiresAt,
		IsActive:     active,
	}
	if err := h.Creator.Create(r.Context(), c); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create coupon", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": c})
}

func writeCouponError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrInactive),
		errors.Is(err, ErrExpired),
		errors.Is(err, ErrUsageLimitReached),
		errors.Is(err, ErrAlreadyUsed),
		errors.Is(err, ErrMinimumSpendUnmet),
		errors.Is(err, ErrMinimumQuantityUnmet):
		common.JSONError(w, http.StatusUnprocessableEntity, "NOT_ELIGIBLE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon validation failed", nil)
	}
}
