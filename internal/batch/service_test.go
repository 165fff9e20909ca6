package batch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"geocoder_backend/internal/storage"
	"geocoder_backend/platform/apperr"
	"geocoder_backend/platform/logger"
)

type memoryStore struct {
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) GenerateUploadURL(_ context.Context, bucket, folder, fileName, _ string, _ int64) (*storage.PresignedURL, error) {
	key := folder + "/" + fileName
	return &storage.PresignedURL{URL: "https://s3.test/" + bucket + "/" + key, FileKey: key, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (m *memoryStore) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://s3.test/" + bucket + "/" + fileKey, FileKey: fileKey}, nil
}

func (m *memoryStore) DownloadFile(_ context.Context, _, fileKey string) (io.ReadCloser, error) {
	data, ok := m.objects[fileKey]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStore) PutFile(_ context.Context, _, fileKey, _ string, reader io.Reader, _ int64) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[fileKey] = data
	return nil
}

func (m *memoryStore) Exists(_ context.Context, _, fileKey string) (bool, error) {
	_, ok := m.objects[fileKey]
	return ok, nil
}

func (m *memoryStore) EnsureBucketExists(context.Context, string) error { return nil }

func (m *memoryStore) ValidateContentType(contentType string) error {
	if !strings.HasPrefix(contentType, "text/csv") {
		return errors.New("content type not allowed")
	}
	return nil
}

func (m *memoryStore) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes > 1024 {
		return errors.New("too large")
	}
	return nil
}

type recordingEnqueuer struct {
	payloads []GeocodeBatchPayload
}

func (r *recordingEnqueuer) EnqueueGeocodeBatch(_ context.Context, payload GeocodeBatchPayload) error {
	r.payloads = append(r.payloads, payload)
	return nil
}

func TestSubmitQueuesJob(t *testing.T) {
	store := newMemoryStore()
	store.objects["inputs/calls.csv"] = []byte("address\n150 Main St\n")
	enq := &recordingEnqueuer{}
	svc := NewService(store, enq, "batches")

	job, err := svc.Submit(context.Background(), SubmitRequest{InputKey: "inputs/calls.csv", Column: "address"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(enq.payloads) != 1 {
		t.Fatalf("expected one queued task, got %d", len(enq.payloads))
	}
	p := enq.payloads[0]
	if p.JobID != job.ID || p.OutputKey != OutputKey(job.ID) || p.Column != "address" {
		t.Fatalf("unexpected payload %+v", p)
	}

	if _, err := svc.Submit(context.Background(), SubmitRequest{InputKey: "inputs/missing.csv", Column: "address"}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for a missing input, got %v", err)
	}
}

func TestServiceWithoutBackends(t *testing.T) {
	svc := NewService(nil, nil, "batches")
	if _, err := svc.Submit(context.Background(), SubmitRequest{InputKey: "a", Column: "b"}); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if _, err := svc.PresignUpload(context.Background(), UploadRequest{FileName: "a.csv", ContentType: "text/csv", SizeBytes: 1}); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestPresignUploadValidates(t *testing.T) {
	svc := NewService(newMemoryStore(), &recordingEnqueuer{}, "batches")

	if _, err := svc.PresignUpload(context.Background(), UploadRequest{FileName: "a.png", ContentType: "image/png", SizeBytes: 10}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for content type, got %v", err)
	}
	url, err := svc.PresignUpload(context.Background(), UploadRequest{FileName: "a.csv", ContentType: "text/csv", SizeBytes: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(url.FileKey, inputFolder+"/") {
		t.Fatalf("expected key under %s, got %q", inputFolder, url.FileKey)
	}
}

func TestJobRunnerWritesResultAndResultURL(t *testing.T) {
	store := newMemoryStore()
	store.objects["inputs/calls.csv"] = []byte("address\n150 Main St\nNowhere\n")
	proc := NewProcessor(&stubGeocoder{}, testBatchConfig{concurrency: 2}, logger.Discard())
	runner := NewJobRunner(store, "batches", proc, logger.Discard())
	svc := NewService(store, &recordingEnqueuer{}, "batches")

	jobID := "3f1c1a7e-6c43-4d55-9a3a-1f4f0a6e2b10"
	if _, err := svc.Result(context.Background(), jobID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not ready before the job ran, got %v", err)
	}

	stats, err := runner.Run(context.Background(), GeocodeBatchPayload{
		JobID:     jobID,
		InputKey:  "inputs/calls.csv",
		OutputKey: OutputKey(jobID),
		Column:    "address",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Rows != 2 || stats.Matched != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if out := string(store.objects[OutputKey(jobID)]); !strings.Contains(out, "cns/address") {
		t.Fatalf("result file missing match columns: %q", out)
	}

	res, err := svc.Result(context.Background(), jobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FileKey != OutputKey(jobID) {
		t.Fatalf("unexpected result key %q", res.FileKey)
	}

	if _, err := svc.Result(context.Background(), "not-a-uuid"); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for malformed id, got %v", err)
	}
}

func TestGeocodeBatchTaskRoundTrip(t *testing.T) {
	task, err := NewGeocodeBatchTask(GeocodeBatchPayload{JobID: "j", InputKey: "in", OutputKey: "out", Column: "address"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskGeocodeBatch {
		t.Fatalf("unexpected task type %q", task.Type())
	}
	payload, err := ParseGeocodeBatchPayload(task)
	if err != nil || payload.InputKey != "in" || payload.Column != "address" {
		t.Fatalf("unexpected payload %+v (%v)", payload, err)
	}
}
