package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geocoder_backend/internal/address"
	"geocoder_backend/internal/batch"
	"geocoder_backend/internal/geocoder"
	"geocoder_backend/internal/geocoder/cache"
	"geocoder_backend/internal/geocoder/repository"
	"geocoder_backend/internal/storage"
	"geocoder_backend/platform/config"
	"geocoder_backend/platform/db"
	"geocoder_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting batch worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	parser := address.NewParser(nil)
	if path := cfg.GetSuffixesPath(); path != "" {
		suffixes, err := address.LoadSuffixesFile(path)
		if err != nil {
			log.Error("failed to load street types", "error", err, "path", path)
			panic("failed to load street types: " + err.Error())
		}
		parser = address.NewParser(suffixes)
	}

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
		}
	}

	store, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure batches bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx, cfg.GetMinioBucketBatches())
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketBatches())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}

	proc := batch.NewProcessor(svc, cfg, log)
	jobs := batch.NewJobRunner(store, cfg.GetMinioBucketBatches(), proc, log)

	worker, err := batch.NewWorker(cfg, jobs, log)
	if err != nil {
		log.Error("failed to initialize batch worker", "error", err)
		panic("failed to initialize batch worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("batch worker stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
