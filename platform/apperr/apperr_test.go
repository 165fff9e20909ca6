package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusByKind(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("no match"), http.StatusNotFound},
		{Validation("bad address"), http.StatusUnprocessableEntity},
		{BadRequest("missing q"), http.StatusBadRequest},
		{Unavailable("queue disabled"), http.StatusServiceUnavailable},
		{Internal("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.err.Message, tc.want, got)
		}
	}
}

func TestGetKindThroughWrapping(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("geocode: %w", Wrap(KindInternal, "reference lookup failed", base).WithOp("geocoder.Geocode"))

	if !Is(err, KindInternal) {
		t.Fatalf("expected internal kind through fmt wrapping")
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected underlying error to be reachable")
	}
	if GetKind(base) != KindUnknown {
		t.Fatalf("plain errors must report KindUnknown")
	}
}

func TestErrorStringIncludesOp(t *testing.T) {
	err := NotFound("no match").WithOp("geocoder.Geocode")
	if err.Error() != "geocoder.Geocode: no match" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}
