package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ruralhealth/pharmacy-discovery/internal/adapters/cache"
	"github.com/ruralhealth/pharmacy-discovery/internal/adapters/database"
	"github.com/ruralhealth/pharmacy-discovery/internal/adapters/events"
	"github.com/ruralhealth/pharmacy-discovery/internal/adapters/providers/geolocation"
	"github.com/ruralhealth/pharmacy-discovery/internal/adapters/providers/places"
	"github.com/ruralhealth/pharmacy-discovery/internal/api/handlers"
	"github.com/ruralhealth/pharmacy-discovery/internal/api/routes"
	"github.com/ruralhealth/pharmacy-discovery/internal/application/services"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/repositories"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/clients/postgres"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/clients/redis"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/notifications"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
	"github.com/ruralhealth/pharmacy-discovery/pkg/config"
	"github.com/ruralhealth/pharmacy-discovery/pkg/geo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Logging.Env, cfg.Logging.Level)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Postgres backs the medicine catalog and orders. Discovery still works without it.
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("PostgreSQL unavailable; using synthetic inventory and disabling checkout")
	} else {
		defer pgClient.Close()
		log.Info().Msg("PostgreSQL client initialized")
	}

	// Redis is optional: caching and degraded-mode events
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus = events.NoopEventBus{}
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; running without cache and event bus")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient.Client(), "pharmacy")
		eventBus = events.NewRedisEventBus(redisClient.Client())
		log.Info().Msg("Redis client initialized")
	}

	var geolocationProvider providers.GeolocationProvider
	switch cfg.Geolocation.Provider {
	case "google":
		if cfg.Geolocation.APIKey == "" {
			log.Warn().Msg("GEOLOCATION_API_KEY is not set; using mock geolocation provider")
			geolocationProvider = geolocation.NewMockGeolocationProvider()
		} else {
			geolocationProvider = geolocation.NewGoogleGeolocationProvider(cfg.Geolocation.APIKey, cacheProvider)
		}
	default:
		geolocationProvider = geolocation.NewMockGeolocationProvider()
	}

	// Facility sources, in fallback order
	agg := cfg.Aggregation
	var sources []providers.PlacesSource
	var distances providers.DistanceMatrixProvider
	if cfg.Places.APIKey != "" {
		google := places.NewGooglePlacesSourceWithOptions(cfg.Places.APIKey, cacheProvider, cfg.Places.BaseURL, nil)
		sources = append(sources, places.NewBreakerSource(google, agg.BreakerFailures, agg.BreakerCooldown))
		distances = google
	} else {
		log.Warn().Msg("GOOGLE_MAPS_API_KEY is not set; primary places source disabled")
	}
	overpass := places.NewOverpassSource(cfg.Overpass.URL, cfg.Overpass.RequestsPerMinute)
	sources = append(sources, places.NewBreakerSource(overpass, agg.BreakerFailures, agg.BreakerCooldown))

	urban := geo.UrbanClassifier{MinAbsLatitude: agg.UrbanMinAbsLat, MinAbsLongitude: agg.UrbanMinAbsLng}

	var catalog repositories.MedicineCatalogRepository
	var orderHandler *handlers.OrderHandler
	if pgClient != nil {
		catalog = database.NewCachedMedicineCatalogAdapter(database.NewMedicineCatalogAdapter(pgClient), cacheProvider, agg.CatalogCacheTTL)
		orderHandler = handlers.NewOrderHandler(services.NewCheckoutService(database.NewOrderAdapter(pgClient)))
	}

	// Initialize services
	inventory := services.NewInventoryResolver(catalog, urban, agg.CallTimeout)
	aggregator := services.NewPharmacyAggregationService(
		sources,
		distances,
		places.NewMockSource(urban),
		inventory,
		eventBus,
		services.AggregationOptions{
			RadiusMeters: agg.RadiusMeters,
			MaxResults:   agg.MaxResults,
			CallTimeout:  agg.CallTimeout,
			MockFallback: agg.MockFallbackEnabled,
		},
	)
	if agg.MockFallbackEnabled {
		log.Warn().Msg("mock pharmacy fallback is enabled; responses may contain synthetic data flagged as degraded")
	}
	locations := services.NewLocationResolver(
		geolocationProvider,
		entities.Coordinate{Latitude: agg.DefaultLatitude, Longitude: agg.DefaultLongitude},
		agg.CallTimeout,
	)

	var sender providers.NotificationSender = notifications.LogSender{}
	if cfg.Notifications.WebhookURL != "" {
		webhook, err := notifications.NewWebhookSender(cfg.Notifications.WebhookURL, cfg.Notifications.Timeout)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid consultation webhook configuration")
		}
		sender = webhook
	} else {
		log.Warn().Msg("CONSULTATION_WEBHOOK_URL is not set; completion notices are only logged")
	}
	notifier := services.NewConsultationNotifier(sender, cfg.Notifications.Timeout)

	// Set up router
	router := routes.NewRouter(
		handlers.NewPharmacyHandler(aggregator, locations),
		orderHandler,
		handlers.NewNotificationHandler(notifier),
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	notifier.Wait()

	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}

	log.Info().Msg("server stopped")
}
