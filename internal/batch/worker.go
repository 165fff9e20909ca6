package batch

import (
	"bytes"
	"context"
	"fmt"

	"geocoder_backend/internal/storage"
	"geocoder_backend/platform/apperr"
	"geocoder_backend/platform/config"
	"geocoder_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	jobs   *JobRunner
	log    *logger.Logger
}

// JobRunner executes a single batch job: download, geocode, upload.
type JobRunner struct {
	store  storage.StorageService
	bucket string
	proc   *Processor
	log    *logger.Logger
}

func NewJobRunner(store storage.StorageService, bucket string, proc *Processor, log *logger.Logger) *JobRunner {
	return &JobRunner{store: store, bucket: bucket, proc: proc, log: log}
}

func NewWorker(cfg config.SchedulerConfig, jobs *JobRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 2
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		jobs:   jobs,
		log:    log,
	}

	mux.HandleFunc(TaskGeocodeBatch, w.handleGeocodeBatch)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("batch worker stopped", "error", err)
	}
}

func (w *Worker) handleGeocodeBatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseGeocodeBatchPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	ctx = context.WithValue(ctx, logger.JobIDKey, payload.JobID)
	if _, err := w.jobs.Run(ctx, payload); err != nil {
		// Bad input will not get better on retry.
		if apperr.Is(err, apperr.KindValidation) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

// Run processes payload synchronously and uploads the result CSV.
func (r *JobRunner) Run(ctx context.Context, payload GeocodeBatchPayload) (Stats, error) {
	log := r.log.WithContext(ctx)
	log.Info("batch started", "job_id", payload.JobID, "input", payload.InputKey, "column", payload.Column)

	in, err := r.store.DownloadFile(ctx, r.bucket, payload.InputKey)
	if err != nil {
		return Stats{}, err
	}
	defer func() {
		_ = in.Close()
	}()

	var out bytes.Buffer
	stats, err := r.proc.Process(ctx, payload.JobID, in, &out, Options{
		Column:     payload.Column,
		CityColumn: payload.CityColumn,
	})
	if err != nil {
		log.Error("batch failed", "job_id", payload.JobID, "error", err)
		return Stats{}, err
	}

	if err := r.store.PutFile(ctx, r.bucket, payload.OutputKey, "text/csv", &out, int64(out.Len())); err != nil {
		return Stats{}, err
	}

	log.Info("batch finished",
		"job_id", payload.JobID,
		"output", payload.OutputKey,
		"rows", stats.Rows,
		"matched", stats.Matched,
		"failed", stats.Failed,
		"duration", stats.Duration.String(),
	)
	return stats, nil
}
