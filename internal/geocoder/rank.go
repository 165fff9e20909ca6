package geocoder

import "geocoder_backend/internal/address"

const (
	directionWeight    = 10
	typeWeight         = 10
	jurisdictionWeight = 20
	inRangeWeight      = 25

	// Numbers farther than this from a segment earn no proximity credit.
	maxNumberDistance = 1500
)

// RankStreet scores how well seg matches the parsed address. jurisdiction
// is the place code resolved from the parsed city.
func RankStreet(parsed *address.Address, jurisdiction string, seg *Segment) int {
	score := 0

	if parsed.StreetDirection == seg.StreetDir {
		score += directionWeight
	}
	if parsed.StreetType == seg.StreetType {
		score += typeWeight
	}
	if jurisdiction == seg.LCity || jurisdiction == seg.RCity {
		score += jurisdictionWeight
	}

	if parsed.HasNumber() {
		n := *parsed.Number
		if seg.InRange(n) {
			score += inRangeWeight
		} else {
			dist := seg.LNumber - n
			if n > seg.HNumber {
				dist = n - seg.HNumber
			}
			if dist < maxNumberDistance {
				score += (maxNumberDistance - dist) / 100
			}
		}
	}

	return score
}

// bestSegment returns the highest ranked candidate with Score and City
// set. Earlier candidates win ties.
func bestSegment(parsed *address.Address, jurisdiction string, candidates []Segment) *Segment {
	var best *Segment
	for i := range candidates {
		score := RankStreet(parsed, jurisdiction, &candidates[i])
		if best != nil && score <= best.Score {
			continue
		}
		seg := candidates[i]
		seg.Score = score
		switch jurisdiction {
		case seg.LCity:
			seg.City = seg.LCity
		case seg.RCity:
			seg.City = seg.RCity
		default:
			seg.City = ""
		}
		best = &seg
	}
	return best
}
