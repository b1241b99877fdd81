package http

import (
	"log/slog"
	"net/http"

	"github.com/ogura/location-service/internal/service"
	"github.com/ogura/location-service/pkg/httputil"
	"github.com/ogura/location-service/pkg/validator"
)

// PreferencesHandler handles HTTP requests for recent searches and
// favorites.
type PreferencesHandler struct {
	service *service.PreferencesService
	logger  *slog.Logger
}

// NewPreferencesHandler creates a new preferences HTTP handler.
func NewPreferencesHandler(svc *service.PreferencesService, logger *slog.Logger) *PreferencesHandler {
	return &PreferencesHandler{service: svc, logger: logger}
}

// RecordSearchRequest is the JSON request body for recording a search.
type RecordSearchRequest struct {
	Term string `json:"term" validate:"required,min=1,max=200"`
}

// FavoriteRequest is the JSON request body for adding or removing a
// favorite.
type FavoriteRequest struct {
	ModelID string `json:"model_id" validate:"required"`
}

// RecentSearches handles GET /api/v1/searches/recent
func (h *PreferencesHandler) RecentSearches(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	searches, err := h.service.RecentSearches(r.Context(), scope.SessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: searches})
}

// RecordSearch handles POST /api/v1/searches/recent
func (h *PreferencesHandler) RecordSearch(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	var req RecordSearchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.RecordSearch(r.Context(), scope.SessionID, req.Term); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	searches, err := h.service.RecentSearches(r.Context(), scope.SessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: searches})
}

// Favorites handles GET /api/v1/favorites
func (h *PreferencesHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	favorites, err := h.service.Favorites(r.Context(), scope.SessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: favorites})
}

// AddFavorite handles PUT /api/v1/favorites
func (h *PreferencesHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	var req FavoriteRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.AddFavorite(r.Context(), scope.SessionID, req.ModelID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"model_id": req.ModelID, "status": "favorited"},
	})
}

// RemoveFavorite handles DELETE /api/v1/favorites
func (h *PreferencesHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	scope := ScopeFromContext(r.Context())

	var req FavoriteRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.RemoveFavorite(r.Context(), scope.SessionID, req.ModelID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"model_id": req.ModelID, "status": "removed"},
	})
}
