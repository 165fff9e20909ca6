package geocoder

import (
	"context"

	"geocoder_backend/internal/address"
)

// MatchType identifies the strategy that produced a Result.
type MatchType string

const (
	// MatchAddress is an address point taken from the addresses table.
	MatchAddress MatchType = "cns/address"
	// MatchInterpolated is a point interpolated along a segment.
	MatchInterpolated MatchType = "cns/seginterp"
	// MatchMidpoint is a segment midpoint used when interpolation is unreliable.
	MatchMidpoint MatchType = "cns/segmid"
	// MatchSegment is a street-only match located at the segment midpoint.
	MatchSegment MatchType = "cns/segment"
	// MatchIntersection is a node shared by two streets.
	MatchIntersection MatchType = "cns/intersection"
)

// Segment is one street block of the reference data.
type Segment struct {
	SourceID     string  `json:"segment_source_id" yaml:"segment_source_id"`
	Street       string  `json:"street" yaml:"street"`
	StreetType   string  `json:"street_type" yaml:"street_type"`
	StreetDir    string  `json:"street_dir" yaml:"street_dir"`
	LNumber      int     `json:"lnumber" yaml:"lnumber"`
	HNumber      int     `json:"hnumber" yaml:"hnumber"`
	LCity        string  `json:"lcity" yaml:"lcity"`
	RCity        string  `json:"rcity" yaml:"rcity"`
	X1           float64 `json:"x1" yaml:"x1"`
	Y1           float64 `json:"y1" yaml:"y1"`
	X2           float64 `json:"x2" yaml:"x2"`
	Y2           float64 `json:"y2" yaml:"y2"`
	XM           float64 `json:"xm" yaml:"xm"`
	YM           float64 `json:"ym" yaml:"ym"`
	HasAddresses bool    `json:"has_addresses" yaml:"has_addresses"`

	// Set when the segment wins a ranking.
	Score int    `json:"score" yaml:"score"`
	City  string `json:"city,omitempty" yaml:"city,omitempty"`
}

// InRange reports whether number lies within the segment's house numbers.
func (s *Segment) InRange(number int) bool {
	return number >= s.LNumber && number <= s.HNumber
}

// AddressPoint is an exact address location.
type AddressPoint struct {
	Number          int     `json:"number" yaml:"number"`
	SegmentSourceID string  `json:"segment_source_id" yaml:"segment_source_id"`
	X               float64 `json:"x" yaml:"x"`
	Y               float64 `json:"y" yaml:"y"`
	City            string  `json:"city,omitempty" yaml:"city,omitempty"`
}

// Node is an intersection of two streets.
type Node struct {
	ID      int64   `json:"id" yaml:"id"`
	Street1 string  `json:"street_1" yaml:"street_1"`
	Street2 string  `json:"street_2" yaml:"street_2"`
	X       float64 `json:"x" yaml:"x"`
	Y       float64 `json:"y" yaml:"y"`
}

// Place is a row of the places table.
type Place struct {
	Code  string `json:"code"`
	SCode string `json:"scode"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

// Canonical holds the street fields of the matched reference row. They are
// kept apart from the parsed input so callers see both.
type Canonical struct {
	Street     string `json:"street" yaml:"street"`
	StreetType string `json:"street_type,omitempty" yaml:"street_type,omitempty"`
	StreetDir  string `json:"street_dir,omitempty" yaml:"street_dir,omitempty"`
	City       string `json:"city,omitempty" yaml:"city,omitempty"`
}

// Result is a geocoded location.
//
// Quality depends on Type: the house number difference for MatchAddress,
// the distance from the segment midpoint for MatchInterpolated, the rank
// score for MatchSegment, and 0 otherwise.
type Result struct {
	X            float64          `json:"x" yaml:"x"`
	Y            float64          `json:"y" yaml:"y"`
	Type         MatchType        `json:"gctype" yaml:"gctype"`
	Quality      int              `json:"gcquality" yaml:"gcquality"`
	Score        int              `json:"score" yaml:"score"`
	CodedAddress string           `json:"codedaddress" yaml:"codedaddress"`
	Parsed       *address.Address `json:"parsed,omitempty" yaml:"parsed,omitempty"`
	Matched      Canonical        `json:"matched" yaml:"matched"`
	Segment      *Segment         `json:"segment,omitempty" yaml:"segment,omitempty"`
	Node         *Node            `json:"node,omitempty" yaml:"node,omitempty"`
}

// SemiblockQuery filters address points for loose block-level matching.
// Empty fields and nil pointers are not constrained.
type SemiblockQuery struct {
	Street           string
	StreetType       string
	City             string
	Number           *int
	RequireAddresses bool
}

// Reference is the read-only query surface over the reference tables.
type Reference interface {
	// Places returns all rows of the places table.
	Places(ctx context.Context) ([]Place, error)
	// SegmentsByStreet returns every segment whose street equals street.
	SegmentsByStreet(ctx context.Context, street string) ([]Segment, error)
	// NearestAddress returns the address on the segment closest to number,
	// or nil when the segment has none.
	NearestAddress(ctx context.Context, segmentSourceID string, number int) (*AddressPoint, error)
	// Intersection returns the node joining the two streets in either
	// order, or nil.
	Intersection(ctx context.Context, street1, street2 string) (*Node, error)
	// SemiblockAddresses returns address points on matching segments.
	SemiblockAddresses(ctx context.Context, q SemiblockQuery) ([]AddressPoint, error)
}
