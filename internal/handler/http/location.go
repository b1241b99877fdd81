package http

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ogura/location-service/internal/domain"
	"github.com/ogura/location-service/internal/service"
	apperrors "github.com/ogura/location-service/pkg/errors"
	"github.com/ogura/location-service/pkg/httputil"
	"github.com/ogura/location-service/pkg/validator"
)

// LocationHandler handles HTTP requests for location resolution, GPS
// requests, pincode lookup, and delivery checks.
type LocationHandler struct {
	service *service.LocationService
	logger  *slog.Logger
}

// NewLocationHandler creates a new location HTTP handler.
func NewLocationHandler(svc *service.LocationService, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// RequestLocationRequest is the JSON request body for submitting a device
// position report.
type RequestLocationRequest struct {
	Permission string  `json:"permission" validate:"required,oneof=granted denied unavailable"`
	Fix        *GPSFix `json:"fix" validate:"omitempty"`
}

// GPSFix is the device position within a RequestLocationRequest.
type GPSFix struct {
	Latitude  float64   `json:"latitude" validate:"latitude"`
	Longitude float64   `json:"longitude" validate:"longitude"`
	Accuracy  float64   `json:"accuracy" validate:"omitempty,gte=0"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// SetLocationRequest is the JSON request body for manually setting the
// location.
type SetLocationRequest struct {
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Country string `json:"country" validate:"omitempty"`
	Pincode string `json:"pincode" validate:"omitempty,len=6,numeric"`
}

// resolveResponse wraps the location state with the one-shot prompt flag.
type resolveResponse struct {
	*domain.LocationState
	PromptLocation bool `json:"prompt_location"`
}

// --- Handlers ---

// Resolve handles POST /api/v1/location/resolve
func (h *LocationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	state := h.service.Resolve(r.Context(), scope, clientIP(r))
	prompt := h.service.ShouldPromptLocation(r.Context(), scope)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: resolveResponse{LocationState: state, PromptLocation: prompt},
	})
}

// Current handles GET /api/v1/location
func (h *LocationHandler) Current(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	state, err := h.service.Current(r.Context(), scope)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: state})
}

// Request handles POST /api/v1/location/request
func (h *LocationHandler) Request(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	var req RequestLocationRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	report := service.GPSReport{Permission: domain.PermissionStatus(req.Permission)}
	if req.Fix != nil {
		report.Fix = &domain.GPSFix{
			Latitude:  req.Fix.Latitude,
			Longitude: req.Fix.Longitude,
			Accuracy:  req.Fix.Accuracy,
			Timestamp: req.Fix.Timestamp,
		}
	}

	state := h.service.RequestLocation(r.Context(), scope, report)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: state})
}

// SetManual handles PUT /api/v1/location
func (h *LocationHandler) SetManual(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	var req SetLocationRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	country := req.Country
	if country == "" {
		country = "India"
	}

	state := h.service.SetManualLocation(r.Context(), scope, domain.UserLocation{
		City:    req.City,
		State:   req.State,
		Country: country,
		Pincode: req.Pincode,
	})

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: state})
}

// LookupPincode handles GET /api/v1/location/pincode/{pincode}
func (h *LocationHandler) LookupPincode(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	pincode := chi.URLParam(r, "pincode")
	if !validPincode(pincode) {
		httputil.WriteError(w, r, apperrors.InvalidInput("pincode must be exactly 6 digits"), h.logger)
		return
	}

	result, superseded := h.service.LookupPincode(r.Context(), scope, pincode)
	if superseded {
		// A newer lookup replaced this one; tell the client to ignore it.
		httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "SUPERSEDED",
				Message: "a newer pincode lookup is in progress",
			},
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// CheckDelivery handles GET /api/v1/location/delivery/{pincode}
func (h *LocationHandler) CheckDelivery(w http.ResponseWriter, r *http.Request) {
	pincode := chi.URLParam(r, "pincode")
	if !validPincode(pincode) {
		httputil.WriteError(w, r, apperrors.InvalidInput("pincode must be exactly 6 digits"), h.logger)
		return
	}

	info := h.service.CheckDelivery(r.Context(), pincode)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: info})
}

// --- helpers ---

func validPincode(pincode string) bool {
	if len(pincode) != 6 {
		return false
	}
	for _, c := range pincode {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// clientIP extracts the originating client IP, preferring the first
// X-Forwarded-For entry set by the gateway.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
