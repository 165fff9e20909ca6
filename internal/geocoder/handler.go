package geocoder

import (
	"errors"
	"net/http"
	"strings"

	"geocoder_backend/internal/address"
	"geocoder_backend/internal/geocoder/transport"
	"geocoder_backend/platform/apperr"
	"geocoder_backend/platform/httpkit"
	"geocoder_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgNoMatch          = "no match"
)

// Handler exposes the geocoding endpoints.
type Handler struct {
	svc Service
	val *validator.Validator
}

func NewHandler(svc Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Parse handles GET /api/v1/geo/parse
func (h *Handler) Parse(c *gin.Context) {
	var req transport.ParseRequest
	if !h.bindQuery(c, &req) {
		return
	}

	parsed, err := h.svc.Parse(req.Q)
	if err != nil {
		var perr *address.ParseError
		if errors.As(err, &perr) {
			err = apperr.Validation("address could not be parsed").WithDetails(perr.Reason)
		}
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, parsed)
}

// Geocode handles GET /api/v1/geo/geocode
func (h *Handler) Geocode(c *gin.Context) {
	var req transport.GeocodeRequest
	if !h.bindQuery(c, &req) {
		return
	}

	street := req.Q
	if city := strings.TrimSpace(req.City); city != "" && !strings.Contains(street, ",") {
		street += ", " + city
	}

	res, err := h.svc.Geocode(c.Request.Context(), street)
	if httpkit.HandleError(c, err) {
		return
	}
	if res == nil {
		httpkit.HandleError(c, apperr.NotFound(msgNoMatch))
		return
	}
	httpkit.OK(c, res)
}

// Street handles GET /api/v1/geo/street
func (h *Handler) Street(c *gin.Context) {
	var req transport.StreetRequest
	if !h.bindQuery(c, &req) {
		return
	}

	seg, err := h.svc.GeocodeStreet(c.Request.Context(), req.Q)
	if httpkit.HandleError(c, err) {
		return
	}
	if seg == nil {
		httpkit.HandleError(c, apperr.NotFound(msgNoMatch))
		return
	}
	httpkit.OK(c, seg)
}

// Intersection handles GET /api/v1/geo/intersection
func (h *Handler) Intersection(c *gin.Context) {
	var req transport.IntersectionRequest
	if !h.bindQuery(c, &req) {
		return
	}

	node, err := h.svc.GeocodeIntersection(c.Request.Context(), req.A, req.B)
	if httpkit.HandleError(c, err) {
		return
	}
	if node == nil {
		httpkit.HandleError(c, apperr.NotFound(msgNoMatch))
		return
	}
	httpkit.OK(c, node)
}

// Semiblock handles GET /api/v1/geo/semiblock
func (h *Handler) Semiblock(c *gin.Context) {
	var req transport.SemiblockRequest
	if !h.bindQuery(c, &req) {
		return
	}

	groups, err := h.svc.GeocodeSemiblock(c.Request.Context(), req.Street, req.City, req.State)
	if httpkit.HandleError(c, err) {
		return
	}
	if len(groups) == 0 {
		httpkit.HandleError(c, apperr.NotFound(msgNoMatch))
		return
	}
	httpkit.OK(c, groups)
}

func (h *Handler) bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}
