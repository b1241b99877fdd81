package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/ogura/location-service/internal/domain"
	"github.com/ogura/location-service/pkg/httputil"
	pkgmiddleware "github.com/ogura/location-service/pkg/middleware"
)

// ContentTypeJSON ensures request bodies are JSON for mutating methods.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type scopeKeyType struct{}

var scopeKey scopeKeyType

// SessionScope builds the per-request domain.Scope from the X-Session-ID
// header and the optional auth context, and rejects requests that carry
// neither. Authenticated requests without a session header fall back to the
// user ID so their session state still has a stable key.
func SessionScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := domain.Scope{
			SessionID: r.Header.Get("X-Session-ID"),
			UserID:    pkgmiddleware.UserIDFromContext(r.Context()),
		}

		if scope.SessionID == "" {
			if scope.UserID == "" {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "MISSING_SESSION",
						Message: "X-Session-ID header or authentication is required",
					},
				})
				return
			}
			scope.SessionID = scope.UserID
		}

		ctx := context.WithValue(r.Context(), scopeKey, scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ScopeFromContext extracts the request scope set by SessionScope.
func ScopeFromContext(ctx context.Context) domain.Scope {
	if scope, ok := ctx.Value(scopeKey).(domain.Scope); ok {
		return scope
	}
	return domain.Scope{}
}
