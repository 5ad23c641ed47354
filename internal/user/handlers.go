package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pawkart/backend/internal/common"
	"github.com/pawkart/backend/internal/repo"
)

// Handler exposes the address book endpoints. All routes require a
// signed-in user.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type addressRequest struct {
	Line1     string  `json:"line1" validate:"required"`
	Line2     *string `json:"line2"`
	City      string  `json:"city" validate:"required"`
	State     string  `json:"state" validate:"required"`
	Pincode   string  `json:"pincode" validate:"required,len=6,numeric"`
	IsDefault bool    `json:"isDefault"`
}

// List handles GET /api/v1/users/me/addresses.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok || !identity.Authenticated() {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign-in required", nil)
		return
	}
	addresses, err := h.Svc.List(r.Context(), identity.UserID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list addresses", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": addresses})
}

// Create handles POST /api/v1/users/me/addresses.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok || !identity.Authenticated() {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign-in required", nil)
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	address, err := h.Svc.Create(r.Context(), identity.UserID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": address})
}

// Update handles PATCH /api/v1/users/me/addresses/{addressID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok || !identity.Authenticated() {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign-in required", nil)
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	address, err := h.Svc.Update(r.Context(), identity.UserID, chi.URLParam(r, "addressID"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": address})
}

// Delete handles DELETE /api/v1/users/me/addresses/{addressID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFrom(r.Context())
	if !ok || !identity.Authenticated() {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign-in required", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), identity.UserID, chi.URLParam(r, "addressID")); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (AddressInput, bool) {
	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return AddressInput{}, false
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return AddressInput{}, false
	}
	return AddressInput{
		Line1:     req.Line1,
		Line2:     req.Line2,
		City:      req.City,
		State:     req.State,
		Pincode:   req.Pincode,
		IsDefault: req.IsDefault,
	}, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAddress):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, repo.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "address not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "address operation failed", nil)
	}
}
