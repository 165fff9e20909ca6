// Package batch geocodes whole CSV files: the API queues jobs on asynq and
// the worker reads input from object storage, geocodes every row and
// stores the result file next to it.
package batch

import (
	apphttp "geocoder_backend/internal/http"
	"geocoder_backend/internal/storage"
	"geocoder_backend/platform/validator"
)

// Module wires the batch HTTP routes.
type Module struct {
	handler *Handler
	service *Service
}

func NewModule(store storage.StorageService, enqueuer Enqueuer, bucket string, val *validator.Validator) *Module {
	svc := NewService(store, enqueuer, bucket)
	return &Module{
		handler: NewHandler(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "batch"
}

// Service returns the batch service.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/geo/batches")
	group.POST("/uploads", m.handler.PresignUpload)
	group.POST("", m.handler.Submit)
	group.GET("/:id/result", m.handler.Result)
}

var _ apphttp.Module = (*Module)(nil)
