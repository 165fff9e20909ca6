package batch

import "time"

// UploadRequest asks for a presigned URL to upload a batch input file.
type UploadRequest struct {
	FileName    string `json:"fileName" validate:"required,notblank,max=255"`
	ContentType string `json:"contentType" validate:"required"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

// SubmitRequest queues a geocoding job for an uploaded file.
type SubmitRequest struct {
	InputKey   string `json:"inputKey" validate:"required,notblank,max=1024"`
	Column     string `json:"column" validate:"required,notblank,max=100"`
	CityColumn string `json:"cityColumn,omitempty" validate:"omitempty,max=100"`
}

// Job describes a queued batch.
type Job struct {
	ID        string `json:"jobId"`
	InputKey  string `json:"inputKey"`
	OutputKey string `json:"outputKey"`
}

// ResultResponse points at a finished batch's output file.
type ResultResponse struct {
	JobID     string    `json:"jobId"`
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}
