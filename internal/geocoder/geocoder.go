// Package geocoder resolves parsed street addresses to coordinates using
// street segments, address points and intersection nodes from the
// reference tables.
package geocoder

import (
	"context"
	"strconv"
	"strings"

	"geocoder_backend/internal/address"
	"geocoder_backend/platform/apperr"
	"geocoder_backend/platform/logger"
)

// DefaultThreshold is the rank score a segment must exceed for Geocode to
// accept it.
const DefaultThreshold = 20

// Service is the geocoding surface used by the HTTP handler, the batch
// worker and the CLI.
type Service interface {
	Parse(text string) (*address.Address, error)
	Geocode(ctx context.Context, street string) (*Result, error)
	GeocodeStreet(ctx context.Context, street string) (*Segment, error)
	GeocodeIntersection(ctx context.Context, street1, street2 string) (*Node, error)
	GeocodeSemiblock(ctx context.Context, street, city, state string) (map[string][]AddressPoint, error)
}

var _ Service = (*Geocoder)(nil)

// Geocoder matches addresses against a Reference. It is safe for
// concurrent use.
type Geocoder struct {
	ref         Reference
	parser      *address.Parser
	log         *logger.Logger
	threshold   int
	defaultCity string
	juris       jurisdictions
}

// Option configures a Geocoder.
type Option func(*Geocoder)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold int) Option {
	return func(g *Geocoder) { g.threshold = threshold }
}

// WithDefaultCity sets the city assumed when the input names none.
func WithDefaultCity(city string) Option {
	return func(g *Geocoder) { g.defaultCity = city }
}

// WithLogger sets the logger for match outcomes.
func WithLogger(log *logger.Logger) Option {
	return func(g *Geocoder) { g.log = log }
}

// New creates a geocoder. A nil parser uses the default street-type
// dictionary.
func New(ref Reference, parser *address.Parser, opts ...Option) *Geocoder {
	if parser == nil {
		parser = address.NewParser(nil)
	}
	g := &Geocoder{
		ref:       ref,
		parser:    parser,
		log:       logger.Discard(),
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Parse exposes the geocoder's parser.
func (g *Geocoder) Parse(text string) (*address.Address, error) {
	return g.parser.Parse(text)
}

// Geocode resolves street, which may be "A / B" for an intersection. It
// returns nil without error when nothing matches or the input cannot be
// parsed. Address matches scoring at or below the threshold are rejected.
func (g *Geocoder) Geocode(ctx context.Context, street string) (*Result, error) {
	if strings.Contains(street, " / ") {
		parsed, err := g.parser.Parse(street)
		if err != nil || parsed.CrossStreet == nil {
			return nil, nil
		}
		node, err := g.intersection(ctx, parsed, parsed.CrossStreet)
		if err != nil || node == nil {
			return nil, err
		}
		res := &Result{
			X:            node.X,
			Y:            node.Y,
			Type:         MatchIntersection,
			CodedAddress: node.Street1 + " / " + node.Street2,
			Parsed:       parsed,
			Matched:      Canonical{Street: node.Street1},
			Node:         node,
		}
		g.log.WithContext(ctx).GeocodeOutcome(street, string(res.Type), res.Quality, res.Score)
		return res, nil
	}

	parsed, err := g.parser.Parse(street)
	if err != nil {
		g.log.WithContext(ctx).GeocodeOutcome(street, "", 0, 0)
		return nil, nil
	}

	res, err := g.GeocodeAddress(ctx, parsed)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Score <= g.threshold {
		g.log.WithContext(ctx).GeocodeOutcome(street, "", 0, 0)
		return nil, nil
	}
	g.log.WithContext(ctx).GeocodeOutcome(street, string(res.Type), res.Quality, res.Score)
	return res, nil
}

// GeocodeStreet returns the best ranked segment for street, or nil.
func (g *Geocoder) GeocodeStreet(ctx context.Context, street string) (*Segment, error) {
	parsed, err := g.parser.Parse(street)
	if err != nil {
		return nil, nil
	}
	return g.segment(ctx, parsed)
}

// GeocodeAddress locates an already parsed address. It prefers an address
// point on the winning segment, then interpolation along it, then its
// midpoint. The score threshold is not applied.
func (g *Geocoder) GeocodeAddress(ctx context.Context, parsed *address.Address) (*Result, error) {
	if parsed == nil {
		return nil, nil
	}
	seg, err := g.segment(ctx, parsed)
	if err != nil || seg == nil {
		return nil, err
	}

	res := &Result{
		Score:   seg.Score,
		Parsed:  parsed,
		Segment: seg,
		Matched: Canonical{
			Street:     seg.Street,
			StreetType: seg.StreetType,
			StreetDir:  seg.StreetDir,
			City:       seg.City,
		},
	}

	if !parsed.HasNumber() {
		res.X, res.Y = seg.XM, seg.YM
		res.Type = MatchSegment
		res.Quality = seg.Score
		res.CodedAddress = codedAddress(nil, res.Matched, seg)
		return res, nil
	}

	number := *parsed.Number
	if seg.InRange(number) {
		point, err := g.ref.NearestAddress(ctx, seg.SourceID, number)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "address lookup failed", err).WithOp("geocoder.GeocodeAddress")
		}
		if point != nil {
			diff := abs(point.Number - number)
			if diff < seg.HNumber-seg.LNumber {
				res.X, res.Y = point.X, point.Y
				res.Type = MatchAddress
				res.Quality = diff
				res.CodedAddress = codedAddress(&number, res.Matched, seg)
				return res, nil
			}
		}
	}

	if x, y, quality, ok := interpolate(seg, number); ok {
		res.X, res.Y = x, y
		res.Type = MatchInterpolated
		res.Quality = quality
	} else {
		res.X, res.Y = seg.XM, seg.YM
		res.Type = MatchMidpoint
	}
	res.CodedAddress = codedAddress(&number, res.Matched, seg)
	return res, nil
}

// GeocodeIntersection returns the node where the two streets meet, in
// either order, or nil.
func (g *Geocoder) GeocodeIntersection(ctx context.Context, street1, street2 string) (*Node, error) {
	a, err := g.parser.Parse(street1)
	if err != nil {
		return nil, nil
	}
	b, err := g.parser.Parse(street2)
	if err != nil {
		return nil, nil
	}
	return g.intersection(ctx, a, b)
}

func (g *Geocoder) intersection(ctx context.Context, a, b *address.Address) (*Node, error) {
	node, err := g.ref.Intersection(ctx, a.StreetName, b.StreetName)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "intersection lookup failed", err).WithOp("geocoder.GeocodeIntersection")
	}
	return node, nil
}

// GeocodeSemiblock returns address points for a loosely matched block,
// grouped by segment source id. Constraints are relaxed one at a time
// until some addresses match. state is informational only.
func (g *Geocoder) GeocodeSemiblock(ctx context.Context, street, city, state string) (map[string][]AddressPoint, error) {
	parsed, err := g.parser.Parse(street)
	if err != nil {
		return nil, nil
	}
	if err := g.juris.load(ctx, g.ref); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "places lookup failed", err).WithOp("geocoder.GeocodeSemiblock")
	}
	if city == "" {
		city = g.cityOf(parsed)
	}

	q := SemiblockQuery{
		Street:           parsed.StreetName,
		StreetType:       parsed.StreetType,
		City:             g.juris.resolve(city),
		Number:           parsed.Number,
		RequireAddresses: true,
	}
	relax := []func(*SemiblockQuery){
		func(*SemiblockQuery) {},
		func(q *SemiblockQuery) { q.RequireAddresses = false },
		func(q *SemiblockQuery) { q.StreetType = "" },
		func(q *SemiblockQuery) { q.City = "" },
	}

	for step, fn := range relax {
		fn(&q)
		points, err := g.ref.SemiblockAddresses(ctx, q)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "semiblock lookup failed", err).WithOp("geocoder.GeocodeSemiblock")
		}
		if len(points) == 0 {
			continue
		}
		g.log.WithContext(ctx).Debug("semiblock match", "street", street, "state", state, "step", step, "addresses", len(points))

		grouped := make(map[string][]AddressPoint)
		for _, p := range points {
			grouped[p.SegmentSourceID] = append(grouped[p.SegmentSourceID], p)
		}
		return grouped, nil
	}
	return nil, nil
}

func (g *Geocoder) segment(ctx context.Context, parsed *address.Address) (*Segment, error) {
	if err := g.juris.load(ctx, g.ref); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "places lookup failed", err).WithOp("geocoder.segment")
	}
	jurisdiction := g.juris.resolve(g.cityOf(parsed))

	candidates, err := g.ref.SegmentsByStreet(ctx, parsed.StreetName)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "segment lookup failed", err).WithOp("geocoder.segment")
	}
	return bestSegment(parsed, jurisdiction, candidates), nil
}

func (g *Geocoder) cityOf(parsed *address.Address) string {
	if parsed.City != "" {
		return parsed.City
	}
	return g.defaultCity
}

// codedAddress renders "100 N Main St, SD" from the matched fields. The
// street type is left out for highways.
func codedAddress(number *int, m Canonical, seg *Segment) string {
	parts := make([]string, 0, 4)
	if number != nil {
		parts = append(parts, strconv.Itoa(*number))
	}
	if m.StreetDir != "" {
		parts = append(parts, m.StreetDir)
	}
	parts = append(parts, m.Street)
	if m.StreetType != "" && m.StreetType != address.HighwayType {
		parts = append(parts, strings.ToUpper(m.StreetType[:1])+m.StreetType[1:])
	}

	city := m.City
	if city == "" {
		city = seg.LCity
	}
	s := strings.Join(parts, " ")
	if city != "" {
		s += ", " + city
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
