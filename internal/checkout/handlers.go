package checkout

import (
	"errors"
	"net/http"

	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/repo"
)

// Handler exposes the checkout quote endpoint.
type Handler struct {
	Svc *Service
}

// Quote handles GET /api/v1/checkout/quote. It prices the caller's cart
// exactly as order creation would, so the client can render final totals.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "identity required", nil)
		return
	}
	q, err := h.Svc.QuoteCart(r.Context(), identity)
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quotePayload(q)})
}

func quotePayload(q Quote) map[string]any {
	lines := make([]map[string]any, 0, len(q.Totals.Lines))
	for _, line := range q.Totals.Lines {
		entry := map[string]any{
			"productId":     line.Item.ProductID,
			"qty":           line.Item.Qty,
			"unitOriginal":  line.UnitOriginal,
			"unitEffective": line.UnitEffective,
			"hasDiscount":   line.HasDiscount,
			"lineTotal":     line.LineTotal(),
		}
		if p, ok := q.Products[line.Item.ProductID]; ok {
			entry["name"] = p.Name
		}
		lines = append(lines, entry)
	}
	payload := map[string]any{
		"lines":                    lines,
		"subtotal":                 q.Totals.Subtotal,
		"comboDiscount":            q.Totals.ComboDiscount,
		"couponDiscount":           q.Totals.CouponDiscount,
		"shipping":                 q.Totals.Shipping,
		"shippingIsEstimate":       q.Totals.ShippingIsEstimate,
		"hasMultipleDeliveryDates": q.Totals.HasMultipleDeliveryDates,
		"total":                    q.Totals.Total,
	}
	if q.Cart.CouponCode != nil {
		payload["couponCode"] = *q.Cart.CouponCode
	}
	if q.CouponError != nil {
		payload["couponError"] = q.CouponError.Error()
	}
	return payload
}

func writeQuoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart is empty", nil)
	case errors.Is(err, ErrProductUnavailable):
		common.JSONError(w, http.StatusConflict, "PRODUCT_UNAVAILABLE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to quote cart", nil)
	}
}
