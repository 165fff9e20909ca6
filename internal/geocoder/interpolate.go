package geocoder

import (
	"math"

	geo "github.com/paulmach/go.geo"
)

// interpolate places number along the segment by linear interpolation of
// the house number range. ok is false when the segment is vertical, has
// an empty range, or the point lands farther from the midpoint than the
// segment is long.
func interpolate(seg *Segment, number int) (x, y float64, quality int, ok bool) {
	if seg.X1 == seg.X2 || seg.HNumber == seg.LNumber {
		return 0, 0, 0, false
	}

	slope := (seg.Y2 - seg.Y1) / (seg.X2 - seg.X1)
	intercept := seg.Y1 - slope*seg.X1
	perNumber := (seg.X2 - seg.X1) / float64(seg.HNumber-seg.LNumber)

	x = seg.X1 + float64(number-seg.LNumber)*perNumber
	y = slope*x + intercept
	if !finite(x) || !finite(y) {
		return 0, 0, 0, false
	}

	point := geo.NewPoint(x, y)
	fromMid := point.DistanceFrom(geo.NewPoint(seg.XM, seg.YM))
	length := geo.NewLine(geo.NewPoint(seg.X1, seg.Y1), geo.NewPoint(seg.X2, seg.Y2)).Distance()
	if !finite(fromMid) || fromMid > length {
		return 0, 0, 0, false
	}

	return x, y, int(math.Round(fromMid)), true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
