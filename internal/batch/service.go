package batch

import (
	"context"

	"geocoder_backend/internal/storage"
	"geocoder_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	inputFolder  = "inputs"
	outputFolder = "results"

	msgBatchesDisabled = "batch geocoding is not configured"
)

// Service coordinates batch uploads, submissions and result downloads.
type Service struct {
	store    storage.StorageService
	enqueuer Enqueuer
	bucket   string
}

// NewService creates the batch service. A nil store or enqueuer disables
// the batch endpoints.
func NewService(store storage.StorageService, enqueuer Enqueuer, bucket string) *Service {
	return &Service{store: store, enqueuer: enqueuer, bucket: bucket}
}

// OutputKey returns the object key of a job's result file.
func OutputKey(jobID string) string {
	return outputFolder + "/" + jobID + ".csv"
}

// PresignUpload returns a URL the caller can PUT the input CSV to.
func (s *Service) PresignUpload(ctx context.Context, req UploadRequest) (*storage.PresignedURL, error) {
	if s.store == nil {
		return nil, apperr.Unavailable(msgBatchesDisabled)
	}
	if err := s.store.ValidateContentType(req.ContentType); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.store.ValidateFileSize(req.SizeBytes); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	url, err := s.store.GenerateUploadURL(ctx, s.bucket, inputFolder, req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to presign upload", err).WithOp("batch.PresignUpload")
	}
	return url, nil
}

// Submit queues a job for an uploaded input file.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Job, error) {
	if s.store == nil || s.enqueuer == nil {
		return nil, apperr.Unavailable(msgBatchesDisabled)
	}

	exists, err := s.store.Exists(ctx, s.bucket, req.InputKey)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to check input file", err).WithOp("batch.Submit")
	}
	if !exists {
		return nil, apperr.NotFound("input file not found")
	}

	job := &Job{
		ID:       uuid.NewString(),
		InputKey: req.InputKey,
	}
	job.OutputKey = OutputKey(job.ID)

	if err := s.enqueuer.EnqueueGeocodeBatch(ctx, GeocodeBatchPayload{
		JobID:      job.ID,
		InputKey:   job.InputKey,
		OutputKey:  job.OutputKey,
		Column:     req.Column,
		CityColumn: req.CityColumn,
	}); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to queue batch", err).WithOp("batch.Submit")
	}
	return job, nil
}

// Result returns a download URL for a finished job.
func (s *Service) Result(ctx context.Context, jobID string) (*ResultResponse, error) {
	if s.store == nil {
		return nil, apperr.Unavailable(msgBatchesDisabled)
	}
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, apperr.BadRequest("invalid job id")
	}

	key := OutputKey(jobID)
	exists, err := s.store.Exists(ctx, s.bucket, key)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to check batch result", err).WithOp("batch.Result")
	}
	if !exists {
		return nil, apperr.NotFound("batch result not ready")
	}

	url, err := s.store.GenerateDownloadURL(ctx, s.bucket, key)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to presign download", err).WithOp("batch.Result")
	}
	return &ResultResponse{JobID: jobID, URL: url.URL, FileKey: url.FileKey, ExpiresAt: url.ExpiresAt}, nil
}
