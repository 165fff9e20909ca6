package geocoder

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	apphttp "geocoder_backend/internal/http"
	"geocoder_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(ref Reference) *gin.Engine {
	engine := gin.New()
	m := NewModule(New(ref, nil), validator.New())
	m.RegisterRoutes(&apphttp.RouterContext{Engine: engine, V1: engine.Group("/api/v1")})
	return engine
}

func get(t *testing.T, engine *gin.Engine, path string, query url.Values) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path+"?"+query.Encode(), nil)
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHandlerGeocode(t *testing.T) {
	engine := newTestRouter(sampleReference())

	rec := get(t, engine, "/api/v1/geo/geocode", url.Values{"q": {"150 Main St"}, "city": {"San Diego"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if res.Type != MatchAddress || res.CodedAddress != "150 Main St, SD" {
		t.Fatalf("unexpected result %+v", res)
	}

	rec = get(t, engine, "/api/v1/geo/geocode", url.Values{"q": {"Nowhere Rd"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for no match, got %d", rec.Code)
	}

	rec = get(t, engine, "/api/v1/geo/geocode", url.Values{"q": {"   "}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank input, got %d", rec.Code)
	}
}

func TestHandlerParse(t *testing.T) {
	engine := newTestRouter(sampleReference())

	rec := get(t, engine, "/api/v1/geo/parse", url.Values{"q": {"100 N Main Street"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["street_name"] != "Main" || body["street_type"] != "st" {
		t.Fatalf("unexpected parse %v", body)
	}

	rec = get(t, engine, "/api/v1/geo/parse", url.Values{"q": {"100"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unparseable input, got %d", rec.Code)
	}
}

func TestHandlerIntersectionAndSemiblock(t *testing.T) {
	engine := newTestRouter(sampleReference())

	rec := get(t, engine, "/api/v1/geo/intersection", url.Values{"a": {"Oak Ave"}, "b": {"Main St"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var node Node
	if err := json.Unmarshal(rec.Body.Bytes(), &node); err != nil || node.ID != 7 {
		t.Fatalf("unexpected node %+v (%v)", node, err)
	}

	rec = get(t, engine, "/api/v1/geo/intersection", url.Values{"a": {"Oak Ave"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when a street is missing, got %d", rec.Code)
	}

	rec = get(t, engine, "/api/v1/geo/semiblock", url.Values{"street": {"150 Main St"}, "city": {"San Diego"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var groups map[string][]AddressPoint
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil || len(groups["main-100"]) != 1 {
		t.Fatalf("unexpected groups %v (%v)", groups, err)
	}
}

func TestHandlerStreet(t *testing.T) {
	engine := newTestRouter(sampleReference())

	rec := get(t, engine, "/api/v1/geo/street", url.Values{"q": {"Oak Ave"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var seg Segment
	if err := json.Unmarshal(rec.Body.Bytes(), &seg); err != nil || seg.SourceID != "oak-1" {
		t.Fatalf("unexpected segment %+v (%v)", seg, err)
	}
}
