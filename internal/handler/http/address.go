package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ogura/location-service/internal/service"
	apperrors "github.com/ogura/location-service/pkg/errors"
	"github.com/ogura/location-service/pkg/httputil"
	"github.com/ogura/location-service/pkg/validator"
)

// AddressHandler handles HTTP requests for the address book. The same
// routes serve authenticated users and guests; the service picks the store.
type AddressHandler struct {
	service *service.AddressService
	logger  *slog.Logger
}

// NewAddressHandler creates a new address HTTP handler.
func NewAddressHandler(svc *service.AddressService, logger *slog.Logger) *AddressHandler {
	return &AddressHandler{service: svc, logger: logger}
}

// AddressRequest is the JSON request body for creating or updating an
// address.
type AddressRequest struct {
	FullName    string `json:"full_name" validate:"required,min=1,max=100"`
	Mobile      string `json:"mobile" validate:"required,len=10,numeric"`
	Pincode     string `json:"pincode" validate:"required,len=6,numeric"`
	AddressLine string `json:"address_line" validate:"required,min=1,max=500"`
	City        string `json:"city" validate:"required,min=1,max=100"`
	State       string `json:"state" validate:"required,min=1,max=100"`
	Landmark    string `json:"landmark" validate:"omitempty,max=200"`
	AddressType string `json:"address_type" validate:"required,oneof=home work"`
	IsDefault   bool   `json:"is_default"`
}

func (req *AddressRequest) toInput() *service.AddressInput {
	return &service.AddressInput{
		FullName:    req.FullName,
		Mobile:      req.Mobile,
		Pincode:     req.Pincode,
		AddressLine: req.AddressLine,
		City:        req.City,
		State:       req.State,
		Landmark:    req.Landmark,
		AddressType: req.AddressType,
		IsDefault:   req.IsDefault,
	}
}

// List handles GET /api/v1/addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	book, err := h.service.List(r.Context(), scope)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: book})
}

// Get handles GET /api/v1/addresses/{id}
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("address id is required"), h.logger)
		return
	}

	address, err := h.service.Get(r.Context(), scope, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: address})
}

// Create handles POST /api/v1/addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	var req AddressRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	address, err := h.service.Add(r.Context(), scope, req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: address})
}

// Update handles PUT /api/v1/addresses/{id}
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("address id is required"), h.logger)
		return
	}

	var req AddressRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	address, err := h.service.Update(r.Context(), scope, id, req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: address})
}

// Delete handles DELETE /api/v1/addresses/{id}
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("address id is required"), h.logger)
		return
	}

	if err := h.service.Remove(r.Context(), scope, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"id": id, "status": "deleted"},
	})
}

// Select handles POST /api/v1/addresses/{id}/select
func (h *AddressHandler) Select(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("address id is required"), h.logger)
		return
	}

	if err := h.service.Select(r.Context(), scope, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"selected_id": id},
	})
}

// SetDefault handles POST /api/v1/addresses/{id}/default
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("address id is required"), h.logger)
		return
	}

	if err := h.service.SetDefault(r.Context(), scope, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"default_id": id},
	})
}
