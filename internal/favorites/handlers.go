package favorites

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/repo"
)

// Handler exposes the saved-products endpoints.
type Handler struct {
	Svc *Service
}

// List handles GET /api/v1/favorites.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok || !identity.Authenticated() {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign-in required", nil)
		return
	}
	products, err := h.Svc.List(r.Context(), identity.UserID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list favorites", nil)
		return
	}
	items := make([]map[string]any, 0, len(products))
	for _, p := range products {
		items = append(items, map[string]any{
			"id":        p.ID,
			"name":      p.Name,
			"basePrice": p.BasePrice,
			"onSale":    p.SalePrice != nil,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Add handles PUT /api/v1/favorites/{productID}.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok || !identity.Authenticated() {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign-in required", nil)
		return
	}
	if err := h.Svc.Add(r.Context(), identity.UserID, chi.URLParam(r, "productID")); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to save favorite", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"saved": true}})
}

// Remove handles DELETE /api/v1/favorites/{productID}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok || !identity.Authenticated() {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign-in required", nil)
		return
	}
	if err := h.Svc.Remove(r.Context(), identity.UserID, chi.URLParam(r, "productID")); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to remove favorite", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"saved": false}})
}
