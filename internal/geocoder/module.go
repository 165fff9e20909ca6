package geocoder

import (
	apphttp "geocoder_backend/internal/http"
	"geocoder_backend/platform/validator"
)

// Module wires the geocoding HTTP routes.
type Module struct {
	handler *Handler
}

func NewModule(svc Service, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(svc, val)}
}

func (m *Module) Name() string {
	return "geocoder"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/geo")
	group.GET("/parse", m.handler.Parse)
	group.GET("/geocode", m.handler.Geocode)
	group.GET("/street", m.handler.Street)
	group.GET("/intersection", m.handler.Intersection)
	group.GET("/semiblock", m.handler.Semiblock)
}

var _ apphttp.Module = (*Module)(nil)
