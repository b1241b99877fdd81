// Package app wires together all dependencies and runs the location service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ogura/location-service/internal/auth"
	"github.com/ogura/location-service/internal/config"
	"github.com/ogura/location-service/internal/event"
	"github.com/ogura/location-service/internal/geo"
	handler "github.com/ogura/location-service/internal/handler/http"
	"github.com/ogura/location-service/internal/repository/postgres"
	redisrepo "github.com/ogura/location-service/internal/repository/redis"
	"github.com/ogura/location-service/internal/service"
	"github.com/ogura/location-service/migrations"
	"github.com/ogura/location-service/pkg/database"
	"github.com/ogura/location-service/pkg/health"
	"github.com/ogura/location-service/pkg/httpclient"
	pkgkafka "github.com/ogura/location-service/pkg/kafka"
	"github.com/ogura/location-service/pkg/middleware"
	"github.com/ogura/location-service/pkg/tracing"
)

// App holds the service's long-lived components.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "location",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
		DSN:      cfg.PostgresDSN(),
		MaxConns: 10,
		MinConns: 2,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Run database migrations.
	if err := database.Migrate(ctx, pool, migrations.FS, ".", logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis client.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Outbound HTTP clients for the geo providers, each behind its own
	// circuit breaker so one flaky provider cannot trip the others.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.GeoRequestTimeout,
		MaxRetries:      2,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 50,
	})

	ipClient := httpclient.NewCircuitBreakerClient(baseClient,
		httpclient.DefaultCircuitBreakerConfig("ip-geolocation"), logger)
	geocodeClient := httpclient.NewCircuitBreakerClient(baseClient,
		httpclient.DefaultCircuitBreakerConfig("reverse-geocode"), logger)
	pincodeClient := httpclient.NewCircuitBreakerClient(baseClient,
		httpclient.DefaultCircuitBreakerConfig("pincode-lookup"), logger)

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret)

	addressRepo := postgres.NewAddressRepository(pool)
	profileRepo := postgres.NewProfileRepository(pool)
	zoneRepo := postgres.NewDeliveryZoneRepository(pool)
	guestAddressRepo := redisrepo.NewGuestAddressRepository(redisClient, cfg.SessionTTL)
	sessionRepo := redisrepo.NewSessionStateRepository(redisClient, cfg.SessionTTL)

	ipLocator := geo.NewIPAPILocator(ipClient, cfg.IPGeoBaseURL, logger)
	geocoder := geo.NewNominatimGeocoder(geocodeClient, cfg.ReverseGeoBaseURL, logger)
	pincodes := geo.NewPostalPincodeResolver(pincodeClient, cfg.PincodeBaseURL, logger)

	eventProducer := event.NewProducer(producer, logger)

	locationService := service.NewLocationService(
		sessionRepo, profileRepo, zoneRepo,
		ipLocator, geocoder, pincodes,
		eventProducer, logger, cfg.GeoRequestTimeout,
	)
	addressService := service.NewAddressService(
		addressRepo, guestAddressRepo, sessionRepo, eventProducer, logger,
	)
	preferencesService := service.NewPreferencesService(sessionRepo, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.CORSAllowedOrigins
	corsConfig.Environment = cfg.Environment

	router := handler.NewRouter(
		locationService, addressService, preferencesService,
		jwtManager, healthHandler, logger, corsConfig,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
