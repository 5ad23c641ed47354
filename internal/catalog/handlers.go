package catalog

import (
	"net/http"
	"time"

	"github.com/pawkart/backend/internal/common"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	offset := int32((page - 1) * perPage)
	products, err := h.service.ListProducts(r.Context(), int32(perPage), offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "list products", nil)
		return
	}
	now := time.Now()
	items := make([]map[string]any, 0, len(products))
	for _, p := range products {
		item := map[string]any{
			"id":         p.ID,
			"name":       p.Name,
			"categoryId": p.CategoryID,
			"basePrice":  p.BasePrice,
			"weightKg":   p.WeightKg,
			"inStock":    p.StockQuantity > 0,
		}
		if p.SaleActiveAt(now) {
			item["salePrice"] = p.SalePrice
		}
		items = append(items, item)
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: page, PerPage: perPage},
	})
}

// Offers handles GET /api/v1/combo-offers.
func (h *Handler) Offers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.ActiveOffers(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "list combo offers", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": offers})
}

// DeliveryTiers handles GET /api/v1/delivery-tiers.
func (h *Handler) DeliveryTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.service.ActiveTiers(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "list delivery tiers", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": tiers})
}
