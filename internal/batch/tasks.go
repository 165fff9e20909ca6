package batch

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskGeocodeBatch = "geocode.batch"

// GeocodeBatchPayload names a CSV in the batches bucket and the column to
// geocode. The result is written to OutputKey in the same bucket.
type GeocodeBatchPayload struct {
	JobID      string `json:"jobId"`
	InputKey   string `json:"inputKey"`
	OutputKey  string `json:"outputKey"`
	Column     string `json:"column"`
	CityColumn string `json:"cityColumn,omitempty"`
}

func NewGeocodeBatchTask(payload GeocodeBatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGeocodeBatch, data), nil
}

func ParseGeocodeBatchPayload(task *asynq.Task) (GeocodeBatchPayload, error) {
	var payload GeocodeBatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return GeocodeBatchPayload{}, err
	}
	return payload, nil
}
