package geocoder

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"geocoder_backend/internal/address"
	"geocoder_backend/platform/apperr"
)

type fakeReference struct {
	places    []Place
	segments  []Segment
	addresses []AddressPoint
	nodes     []Node

	placesErr     error
	nearestCalls  int
	semiblockSeen []SemiblockQuery
}

func (f *fakeReference) Places(context.Context) ([]Place, error) {
	return f.places, f.placesErr
}

func (f *fakeReference) SegmentsByStreet(_ context.Context, street string) ([]Segment, error) {
	var out []Segment
	for _, s := range f.segments {
		if strings.EqualFold(s.Street, street) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeReference) NearestAddress(_ context.Context, segmentSourceID string, number int) (*AddressPoint, error) {
	f.nearestCalls++
	var best *AddressPoint
	for i := range f.addresses {
		a := &f.addresses[i]
		if a.SegmentSourceID != segmentSourceID {
			continue
		}
		if best == nil || abs(a.Number-number) < abs(best.Number-number) {
			best = a
		}
	}
	return best, nil
}

func (f *fakeReference) Intersection(_ context.Context, street1, street2 string) (*Node, error) {
	for i := range f.nodes {
		n := &f.nodes[i]
		if (n.Street1 == street1 && n.Street2 == street2) || (n.Street1 == street2 && n.Street2 == street1) {
			return n, nil
		}
	}
	return nil, nil
}

func (f *fakeReference) SemiblockAddresses(_ context.Context, q SemiblockQuery) ([]AddressPoint, error) {
	f.semiblockSeen = append(f.semiblockSeen, q)
	var out []AddressPoint
	for _, s := range f.segments {
		if !strings.EqualFold(s.Street, q.Street) {
			continue
		}
		if q.StreetType != "" && s.StreetType != q.StreetType {
			continue
		}
		if q.City != "" && s.LCity != q.City && s.RCity != q.City {
			continue
		}
		if q.Number != nil && !s.InRange(*q.Number) {
			continue
		}
		if q.RequireAddresses && !s.HasAddresses {
			continue
		}
		for _, a := range f.addresses {
			if a.SegmentSourceID == s.SourceID {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func sampleReference() *fakeReference {
	return &fakeReference{
		places: []Place{
			{Code: "SD", Name: "San Diego", Type: "city"},
			{Code: "LM", Name: "La Mesa", Type: "city"},
			{Code: "SDCO", Name: "San Diego County", Type: "county"},
		},
		segments: []Segment{
			{SourceID: "main-100", Street: "Main", StreetType: "st", LNumber: 100, HNumber: 200,
				LCity: "SD", RCity: "SD", X1: 0, Y1: 0, X2: 100, Y2: 0, XM: 50, YM: 0, HasAddresses: true},
			{SourceID: "main-lm", Street: "Main", StreetType: "st", LNumber: 100, HNumber: 200,
				LCity: "LM", RCity: "LM", X1: 1000, Y1: 0, X2: 1100, Y2: 0, XM: 1050, YM: 0},
			{SourceID: "oak-1", Street: "Oak", StreetType: "ave", StreetDir: "N", LNumber: 1, HNumber: 99,
				LCity: "SD", RCity: "NONE", X1: 0, Y1: 0, X2: 0, Y2: 100, XM: 0, YM: 50},
		},
		addresses: []AddressPoint{
			{Number: 150, SegmentSourceID: "main-100", X: 49, Y: 3},
		},
		nodes: []Node{
			{ID: 7, Street1: "Main", Street2: "Oak", X: 0, Y: 0},
		},
	}
}

func intPtr(n int) *int { return &n }

func TestRankStreetCityMatchAddsTwenty(t *testing.T) {
	parsed := &address.Address{Number: intPtr(150), StreetName: "Main", StreetType: "st"}
	matching := &Segment{Street: "Main", StreetType: "st", LNumber: 100, HNumber: 200, LCity: "SD"}
	other := *matching
	other.LCity = "LM"

	got, want := RankStreet(parsed, "SD", matching), RankStreet(parsed, "SD", &other)
	if got-want != 20 {
		t.Fatalf("expected city match to add 20, got %d vs %d", got, want)
	}
	if got != 65 {
		t.Fatalf("expected full score 65, got %d", got)
	}
}

func TestRankStreetNumberProximity(t *testing.T) {
	seg := &Segment{LNumber: 100, HNumber: 200}
	cases := []struct {
		number int
		want   int
	}{
		{150, 10 + 10 + 25},
		{300, 10 + 10 + 14},
		{1600, 10 + 10 + 1},
		{1700, 10 + 10},
		{0, 10 + 10 + 14},
	}
	for _, tc := range cases {
		parsed := &address.Address{Number: intPtr(tc.number)}
		if got := RankStreet(parsed, NoJurisdiction, seg); got != tc.want {
			t.Fatalf("number %d: expected %d, got %d", tc.number, tc.want, got)
		}
	}
}

func TestRankStreetDirectionMismatch(t *testing.T) {
	seg := &Segment{StreetDir: "N"}
	if got := RankStreet(&address.Address{StreetDirection: "N"}, NoJurisdiction, seg); got != 20 {
		t.Fatalf("expected matching direction and empty types to score 20, got %d", got)
	}
	if got := RankStreet(&address.Address{}, NoJurisdiction, seg); got != 10 {
		t.Fatalf("expected one-sided direction to lose 10, got %d", got)
	}
}

func TestBestSegmentFirstWinsTies(t *testing.T) {
	parsed := &address.Address{StreetName: "Main"}
	cands := []Segment{{SourceID: "a", LCity: "X"}, {SourceID: "b", RCity: "X"}}
	best := bestSegment(parsed, "X", cands)
	if best.SourceID != "a" || best.City != "X" {
		t.Fatalf("expected first candidate to win the tie, got %+v", best)
	}
	if cands[0].Score != 0 {
		t.Fatalf("ranking must not modify the candidate slice")
	}
	if bestSegment(parsed, "X", nil) != nil {
		t.Fatalf("expected nil for no candidates")
	}
}

func TestGeocodeExactAddress(t *testing.T) {
	g := New(sampleReference(), nil)
	res, err := g.Geocode(context.Background(), "150 Main St, San Diego")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Fatalf("expected a match")
	}
	if res.Type != MatchAddress || res.Quality != 0 {
		t.Fatalf("expected exact address, got %s quality %d", res.Type, res.Quality)
	}
	if res.X != 49 || res.Y != 3 {
		t.Fatalf("expected address point coordinates, got %v,%v", res.X, res.Y)
	}
	if res.Segment.SourceID != "main-100" || res.Matched.City != "SD" {
		t.Fatalf("expected San Diego segment, got %+v", res.Segment)
	}
	if res.CodedAddress != "150 Main St, SD" {
		t.Fatalf("unexpected coded address %q", res.CodedAddress)
	}
}

func TestGeocodeCityPicksSegment(t *testing.T) {
	g := New(sampleReference(), nil)
	res, err := g.Geocode(context.Background(), "120 Main St, La Mesa")
	if err != nil || res == nil {
		t.Fatalf("expected a match, got %v %v", res, err)
	}
	if res.Segment.SourceID != "main-lm" {
		t.Fatalf("expected La Mesa segment, got %s", res.Segment.SourceID)
	}
	if res.Type != MatchInterpolated {
		t.Fatalf("expected interpolation without address points, got %s", res.Type)
	}
	if res.X != 1020 || res.Y != 0 || res.Quality != 30 {
		t.Fatalf("unexpected interpolation %v,%v q=%d", res.X, res.Y, res.Quality)
	}
}

func TestGeocodeFarNumberNeverUsesDistantAddress(t *testing.T) {
	ref := sampleReference()
	g := New(ref, nil)
	parsed, err := g.Parse("100000 Main St, San Diego")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := g.GeocodeAddress(context.Background(), parsed)
	if err != nil || res == nil {
		t.Fatalf("expected a result, got %v %v", res, err)
	}
	if res.Type != MatchMidpoint || res.Quality != 0 {
		t.Fatalf("expected midpoint fallback, got %s q=%d", res.Type, res.Quality)
	}
	if res.X != 50 || res.Y != 0 {
		t.Fatalf("expected midpoint coordinates, got %v,%v", res.X, res.Y)
	}
	if ref.nearestCalls != 0 {
		t.Fatalf("out of range numbers must not query address points")
	}
	if parsed.StreetName != "Main" || parsed.City != "San Diego" {
		t.Fatalf("parsed address must not be modified: %+v", parsed)
	}
}

func TestGeocodeVerticalSegmentFallsBackToMidpoint(t *testing.T) {
	g := New(sampleReference(), nil)
	res, err := g.Geocode(context.Background(), "50 N Oak Ave, San Diego")
	if err != nil || res == nil {
		t.Fatalf("expected a match, got %v %v", res, err)
	}
	if res.Type != MatchMidpoint || res.X != 0 || res.Y != 50 {
		t.Fatalf("expected midpoint for vertical segment, got %+v", res)
	}
	if res.CodedAddress != "50 N Oak Ave, SD" {
		t.Fatalf("unexpected coded address %q", res.CodedAddress)
	}
}

func TestGeocodeStreetOnly(t *testing.T) {
	g := New(sampleReference(), nil, WithDefaultCity("San Diego"))
	res, err := g.Geocode(context.Background(), "Main St")
	if err != nil || res == nil {
		t.Fatalf("expected a match, got %v %v", res, err)
	}
	if res.Type != MatchSegment || res.Quality != res.Score || res.Score != 40 {
		t.Fatalf("unexpected street-only result %+v", res)
	}
}

func TestGeocodeThreshold(t *testing.T) {
	g := New(sampleReference(), nil)
	// Unknown city, wrong type: direction 10 only, number far out of range.
	res, err := g.Geocode(context.Background(), "9000 Main Blvd, Nowhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != nil {
		t.Fatalf("expected low scores to be rejected, got %+v", res)
	}

	g = New(sampleReference(), nil, WithThreshold(5))
	if res, _ := g.Geocode(context.Background(), "9000 Main Blvd, Nowhere"); res == nil {
		t.Fatalf("expected a lower threshold to accept the match")
	}
}

func TestGeocodeIntersectionIsSymmetric(t *testing.T) {
	g := New(sampleReference(), nil)
	a, err := g.GeocodeIntersection(context.Background(), "Main St", "Oak St")
	if err != nil || a == nil {
		t.Fatalf("expected a node, got %v %v", a, err)
	}
	b, err := g.GeocodeIntersection(context.Background(), "Oak St", "Main St")
	if err != nil || b == nil {
		t.Fatalf("expected a node, got %v %v", b, err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected the same node, got %d and %d", a.ID, b.ID)
	}

	res, err := g.Geocode(context.Background(), "Oak Ave / Main St")
	if err != nil || res == nil {
		t.Fatalf("expected intersection match, got %v %v", res, err)
	}
	if res.Type != MatchIntersection || res.Node.ID != 7 {
		t.Fatalf("unexpected intersection result %+v", res)
	}
	if res.Parsed == nil || res.Parsed.StreetName != "Oak" || res.Parsed.CrossStreet == nil {
		t.Fatalf("expected the parsed intersection on the result, got %+v", res.Parsed)
	}
	if res.Parsed.CrossStreet.StreetName != "Main" {
		t.Fatalf("unexpected cross street %+v", res.Parsed.CrossStreet)
	}
}

func TestGeocodeNonsenseReturnsNil(t *testing.T) {
	g := New(sampleReference(), nil)
	ctx := context.Background()
	for _, in := range []string{"", "   ", "&&&", "#!", "100", " / "} {
		if res, err := g.Geocode(ctx, in); res != nil || err != nil {
			t.Fatalf("Geocode(%q): expected nil, nil, got %v %v", in, res, err)
		}
		if seg, err := g.GeocodeStreet(ctx, in); seg != nil || err != nil {
			t.Fatalf("GeocodeStreet(%q): expected nil, nil, got %v %v", in, seg, err)
		}
		if node, err := g.GeocodeIntersection(ctx, in, "Main St"); node != nil || err != nil {
			t.Fatalf("GeocodeIntersection(%q): expected nil, nil, got %v %v", in, node, err)
		}
		if groups, err := g.GeocodeSemiblock(ctx, in, "", ""); groups != nil || err != nil {
			t.Fatalf("GeocodeSemiblock(%q): expected nil, nil, got %v %v", in, groups, err)
		}
	}
	if res, err := g.GeocodeAddress(ctx, nil); res != nil || err != nil {
		t.Fatalf("GeocodeAddress(nil): expected nil, nil")
	}
}

func TestGeocodeReferenceFailureIsAnError(t *testing.T) {
	ref := sampleReference()
	ref.placesErr = errors.New("connection refused")
	g := New(ref, nil)

	_, err := g.Geocode(context.Background(), "150 Main St")
	if err == nil {
		t.Fatalf("expected reference failure to surface")
	}
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error kind, got %v", err)
	}

	// The jurisdiction table loads once it becomes available.
	ref.placesErr = nil
	if res, err := g.Geocode(context.Background(), "150 Main St, San Diego"); err != nil || res == nil {
		t.Fatalf("expected recovery after places became available, got %v %v", res, err)
	}
}

func TestGeocodeSemiblockRelaxes(t *testing.T) {
	ref := sampleReference()
	g := New(ref, nil)

	groups, err := g.GeocodeSemiblock(context.Background(), "150 Main Ave", "San Diego", "CA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 || len(groups["main-100"]) != 1 {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if len(ref.semiblockSeen) != 3 {
		t.Fatalf("expected the street type to be dropped on the third query, saw %d queries", len(ref.semiblockSeen))
	}
	last := ref.semiblockSeen[2]
	if last.StreetType != "" || last.RequireAddresses || last.City != "SD" {
		t.Fatalf("unexpected relaxed query %+v", last)
	}
}

func TestGeocodeSemiblockDropsCityLast(t *testing.T) {
	ref := sampleReference()
	g := New(ref, nil)

	groups, err := g.GeocodeSemiblock(context.Background(), "150 Main St", "Chula Vista", "CA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) != 1 || ids[0] != "main-100" || len(ref.semiblockSeen) != 4 {
		t.Fatalf("unexpected result %v after %d queries", ids, len(ref.semiblockSeen))
	}
}

func TestGeocodeRejectsDistantAddressPoint(t *testing.T) {
	ref := &fakeReference{
		segments: []Segment{{SourceID: "elm", Street: "Elm", StreetType: "st", LNumber: 100, HNumber: 110,
			X1: 0, Y1: 0, X2: 10, Y2: 10, XM: 5, YM: 5}},
		addresses: []AddressPoint{{Number: 500, SegmentSourceID: "elm", X: 99, Y: 99}},
	}
	g := New(ref, nil)
	res, err := g.Geocode(context.Background(), "105 Elm St")
	if err != nil || res == nil {
		t.Fatalf("expected a match, got %v %v", res, err)
	}
	if ref.nearestCalls != 1 {
		t.Fatalf("expected one address lookup, got %d", ref.nearestCalls)
	}
	if res.Type != MatchInterpolated || res.X != 5 || res.Y != 5 || res.Quality != 0 {
		t.Fatalf("expected interpolation at the midpoint, got %+v", res)
	}
}
