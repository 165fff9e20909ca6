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

	"geocoder_backend/internal/address"
	"geocoder_backend/internal/batch"
	"geocoder_backend/internal/geocoder"
	"geocoder_backend/internal/geocoder/cache"
	"geocoder_backend/internal/geocoder/repository"
	apphttp "geocoder_backend/internal/http"
	"geocoder_backend/internal/http/router"
	"geocoder_backend/internal/storage"
	"geocoder_backend/platform/config"
	"geocoder_backend/platform/db"
	"geocoder_backend/platform/logger"
	"geocoder_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	val := validator.New()

	// ========================================================================
	// Geocoder
	// ========================================================================

	parser, err := newParser(cfg)
	if err != nil {
		log.Error("failed to load street types", "error", err, "path", cfg.GetSuffixesPath())
		panic("failed to load street types: " + err.Error())
	}
	log.Info("street types loaded", "count", parser.Suffixes().Len())

	var svc geocoder.Service = geocoder.New(repository.New(pool), parser,
		geocoder.WithThreshold(cfg.GetMatchThreshold()),
		geocoder.WithDefaultCity(cfg.GetDefaultCity()),
		geocoder.WithLogger(log),
	)

	if cfg.IsCacheEnabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Warn("geocode cache disabled", "error", err)
		} else {
			defer func() {
				_ = rdb.Close()
			}()
			svc = cache.New(svc, rdb, cfg, log)
			log.Info("geocode cache enabled", "ttl", cfg.GetGeocodeCacheTTL().String())
		}
	}

	// ========================================================================
	// Batch (optional: needs MinIO and Redis)
	// ========================================================================

	var store storage.StorageService
	if cfg.IsMinIOEnabled() {
		minio, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure batches bucket", 5, 2*time.Second, func() error {
			return minio.EnsureBucketExists(ctx, cfg.GetMinioBucketBatches())
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketBatches())
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		store = minio
		log.Info("storage service initialized", "bucket", cfg.GetMinioBucketBatches())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; batch geocoding disabled")
	}

	var enqueuer batch.Enqueuer
	if cfg.GetRedisURL() != "" {
		client, err := batch.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize batch queue client", "error", err)
		} else {
			defer func() {
				_ = client.Close()
			}()
			enqueuer = client
		}
	} else {
		log.Warn("REDIS_URL not configured; batch geocoding disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			geocoder.NewModule(svc, val),
			batch.NewModule(store, enqueuer, cfg.GetMinioBucketBatches(), val),
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func newParser(cfg config.GeocoderConfig) (*address.Parser, error) {
	path := cfg.GetSuffixesPath()
	if path == "" {
		return address.NewParser(nil), nil
	}
	suffixes, err := address.LoadSuffixesFile(path)
	if err != nil {
		return nil, err
	}
	return address.NewParser(suffixes), nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
