package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ogura/location-service/internal/auth"
	"github.com/ogura/location-service/internal/service"
	"github.com/ogura/location-service/pkg/health"
	"github.com/ogura/location-service/pkg/middleware"
)

// NewRouter creates a chi router with all location service routes
// registered. Every API route accepts both guest sessions (X-Session-ID)
// and authenticated users (Bearer token); a valid token upgrades the scope.
func NewRouter(
	locationService *service.LocationService,
	addressService *service.AddressService,
	preferencesService *service.PreferencesService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("location"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("location"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	locationHandler := NewLocationHandler(locationService, logger)
	addressHandler := NewAddressHandler(addressService, logger)
	preferencesHandler := NewPreferencesHandler(preferencesService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.OptionalAuth(tokenValidator))
		r.Use(SessionScope)
		r.Use(middleware.RequestLogger(logger))

		r.Route("/location", func(r chi.Router) {
			r.Post("/resolve", locationHandler.Resolve)
			r.Post("/request", locationHandler.Request)
			r.Get("/", locationHandler.Current)
			r.Put("/", locationHandler.SetManual)
			r.Get("/pincode/{pincode}", locationHandler.LookupPincode)
			r.Get("/delivery/{pincode}", locationHandler.CheckDelivery)
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", addressHandler.List)
			r.Post("/", addressHandler.Create)
			r.Get("/{id}", addressHandler.Get)
			r.Put("/{id}", addressHandler.Update)
			r.Delete("/{id}", addressHandler.Delete)
			r.Post("/{id}/select", addressHandler.Select)
			r.Post("/{id}/default", addressHandler.SetDefault)
		})

		r.Route("/searches", func(r chi.Router) {
			r.Get("/recent", preferencesHandler.RecentSearches)
			r.Post("/recent", preferencesHandler.RecordSearch)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", preferencesHandler.Favorites)
			r.Put("/", preferencesHandler.AddFavorite)
			r.Delete("/", preferencesHandler.RemoveFavorite)
		})
	})

	return r
}
