package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/venomx/AntivenomFinder/backend/internal/adapters/cache"
	"github.com/venomx/AntivenomFinder/backend/internal/adapters/database"
	"github.com/venomx/AntivenomFinder/backend/internal/adapters/providers/routing"
	"github.com/venomx/AntivenomFinder/backend/internal/api/handlers"
	"github.com/venomx/AntivenomFinder/backend/internal/api/routes"
	"github.com/venomx/AntivenomFinder/backend/internal/application/services"
	"github.com/venomx/AntivenomFinder/backend/internal/domain/providers"
	"github.com/venomx/AntivenomFinder/backend/internal/domain/repositories"
	"github.com/venomx/AntivenomFinder/backend/internal/infrastructure/clients/postgres"
	"github.com/venomx/AntivenomFinder/backend/internal/infrastructure/observability"
	"github.com/venomx/AntivenomFinder/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env, cfg.Server.LogLevel)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics (no-op instruments when telemetry is disabled)
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Initialize the Redis-backed catalog cache. The application works
	// without caching.
	var cacheProvider providers.CacheProvider
	redisCache, err := cache.NewRedisAdapter(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, running without cache")
	} else {
		defer redisCache.Close()
		cacheProvider = redisCache
	}

	// Initialize adapters
	stockAdapter := database.NewStockAdapter(pgClient)

	sqlxDB := sqlx.NewDb(pgClient.DB(), "postgres")
	var snakeRepo repositories.SnakeRepository = database.NewSnakeAdapter(sqlxDB)
	if cacheProvider != nil {
		snakeRepo = database.NewCachedSnakeAdapter(snakeRepo, cacheProvider)
		log.Info().Msg("Snake catalog wrapped with caching layer")
	}

	routingProvider := routing.NewOSRMProvider(cfg.Routing.BaseURL, &http.Client{
		Timeout: time.Duration(cfg.Routing.TimeoutSeconds) * time.Second,
	}, metrics)

	// Initialize services
	assembler := services.NewCandidateAssembler(routingProvider)
	finderService := services.NewFinderService(stockAdapter, snakeRepo, assembler, cfg.Finder, metrics)

	// Initialize handlers
	antivenomHandler := handlers.NewAntivenomHandler(finderService, cfg.Finder)
	snakeHandler := handlers.NewSnakeHandler(snakeRepo)
	routingHandler := handlers.NewRoutingHandler(routingProvider, cfg.Routing.BaseURL)

	// Set up router
	router := routes.NewRouter(antivenomHandler, snakeHandler, routingHandler, metrics)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
