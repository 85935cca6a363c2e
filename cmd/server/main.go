package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anonto42/friendcircle/backend/internal/handlers"
	"github.com/anonto42/friendcircle/backend/internal/observability"
	"github.com/anonto42/friendcircle/backend/internal/realtime"
	"github.com/anonto42/friendcircle/backend/internal/router"
	"github.com/anonto42/friendcircle/backend/internal/validators"
	"github.com/anonto42/friendcircle/backend/pkg/config"
	"github.com/anonto42/friendcircle/backend/pkg/firebase"
	"github.com/anonto42/friendcircle/backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()
	if err := logger.Init(cfg.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		logger.Sync()
		log.Fatal(err)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	mongoDB := db.Mongo.Database(cfg.MongoDatabase)
	if err := router.Migrate(ctx, db.Postgres, mongoDB); err != nil {
		return err
	}

	// Firebase login is optional
	var verifier handlers.IDTokenVerifier
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	switch {
	case errors.Is(err, firebase.ErrNotConfigured):
		logger.Info("firebase login disabled")
	case err != nil:
		return err
	default:
		verifier = firebaseApp.AuthClient
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	registry, closeRegistry, err := newRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRegistry()

	hub := realtime.NewHub(registry, metrics)
	dispatcher := realtime.NewDispatcher(registry, hub, metrics, cfg.DispatchQueueSize)
	stopDispatcher := dispatcher.Start(cfg.DispatchWorkers)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e)
	router.SetupRoutes(e, router.Dependencies{
		Config:    cfg,
		Postgres:  db.Postgres,
		Mongo:     mongoDB,
		Firebase:  verifier,
		Hub:       hub,
		Deliverer: dispatcher,
		Metrics:   metrics,
	})

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("metrics listening", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		hub.Close()
		var errs []error
		if err := e.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if err := stopDispatcher(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}

// newRegistry builds the live connection registry selected by REGISTRY_BACKEND.
func newRegistry(ctx context.Context, cfg *config.Config) (realtime.Registry, func(), error) {
	if cfg.RegistryBackend != "redis" {
		logger.Info("using in-process connection registry")
		return realtime.NewMemoryRegistry(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("using redis connection registry", zap.String("addr", cfg.RedisAddr))
	return realtime.NewRedisRegistry(client, 0), func() { _ = client.Close() }, nil
}
