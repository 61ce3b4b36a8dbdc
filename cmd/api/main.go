package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"easycart/internal/cart"
	"easycart/internal/config"
	"easycart/internal/database"
	"easycart/internal/database/migration"
	handlers "easycart/internal/http/handler"
	"easycart/internal/http/middleware"
	"easycart/internal/logging"
	"easycart/internal/otel"
	"easycart/internal/repository/postgres"
	"easycart/internal/service"
	"easycart/internal/session"
	"easycart/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Session store: Redis when configured, in-process otherwise. The memory
	// store loses carts on restart, so it is only meant for development.
	sessionTTL := time.Duration(cfg.Cart.SessionTTLSec) * time.Second
	var sessions session.Store
	if cfg.Redis.Addr != "" {
		redisStore := session.NewRedisStore(session.NewRedisClient(cfg.Redis), cfg.Cart.SessionPrefix, sessionTTL)
		defer redisStore.Close()
		sessions = redisStore
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis session store")
	} else {
		sessions = session.NewMemoryStore(sessionTTL)
		log.Warn().Msg("REDIS_ADDR not set, using in-memory session store")
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	// Initialize repositories and services
	productRepo := postgres.NewProductPostgres(db)
	productSvc := service.NewProductService(objStore, productRepo)
	cartSvc := service.NewCartService(sessions, productRepo, cart.Limits{
		MaxQuantity: cfg.Cart.MaxQuantity,
		ByStock:     cfg.Cart.LimitByStock,
	}, log)

	// Metrics live on a dedicated registry exposed by a separate listener, so
	// scrapes never pass through the public middleware chain.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMW, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(otelfiber.Middleware())
	app.Use(promMW.Handler())
	app.Use(middleware.Session(cfg.Cart.SessionCookie, sessionTTL))

	// Throttle cart traffic per session. Disabled unless RATE_LIMIT_RPS is set.
	app.Use("/cart", middleware.NewRateLimiter(cfg.RateLimit).Handler())

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, sessions, cartSvc, productSvc)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: metricsMux}
	go func() {
		log.Info().Str("port", cfg.MetricsPort).Msg("metrics server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown failed")
	}
}
