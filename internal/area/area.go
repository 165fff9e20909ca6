// Package area maps WGS84 coordinates onto a square grid laid over a
// Web Mercator (EPSG:3857) bounding box, for extracting raster cells that
// cover an analysis area.
package area

import (
	"fmt"
	"math"

	"geocoder_backend/platform/apperr"

	geo "github.com/paulmach/go.geo"
)

// Bounds is a lon/lat bounding box.
type Bounds struct {
	MinLon float64 `json:"min_lon" yaml:"min_lon"`
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
}

// Mercator is only defined up to roughly 85.05 degrees.
const maxLat = 85.05112878

// maxGridDim caps the columns and rows of a grid.
const maxGridDim = 1 << 20

// Area is a grid of cellSize metre cells. Column 0 is the western edge and
// row 0 the northern edge, matching raster row order.
type Area struct {
	bounds   Bounds
	cellSize float64
	minX     float64
	maxY     float64
	cols     int
	rows     int
}

// New creates an analysis area. cellSize is in projected metres.
func New(b Bounds, cellSize float64) (*Area, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, apperr.Validation("cell size must be positive")
	}
	if b.MinLon >= b.MaxLon || b.MinLat >= b.MaxLat {
		return nil, apperr.Validation(fmt.Sprintf("invalid bounds %v,%v %v,%v", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat))
	}
	if b.MinLon < -180 || b.MaxLon > 180 || b.MinLat < -maxLat || b.MaxLat > maxLat {
		return nil, apperr.Validation("bounds outside the projectable range")
	}

	a := &Area{bounds: b, cellSize: cellSize}
	minX, minY := a.Project(b.MinLon, b.MinLat)
	maxX, maxY := a.Project(b.MaxLon, b.MaxLat)
	a.minX, a.maxY = minX, maxY
	cols := math.Ceil((maxX - minX) / cellSize)
	rows := math.Ceil((maxY - minY) / cellSize)
	if cols > maxGridDim || rows > maxGridDim {
		return nil, apperr.Validation(fmt.Sprintf("cell size %v gives a %.0fx%.0f grid, at most %d cells per side allowed", cellSize, cols, rows, maxGridDim))
	}
	a.cols = int(cols)
	a.rows = int(rows)
	return a, nil
}

// Project converts lon/lat to Web Mercator metres.
func (a *Area) Project(lon, lat float64) (x, y float64) {
	p := geo.NewPoint(lon, lat)
	geo.Mercator.Project(p)
	return p.X(), p.Y()
}

// Unproject converts Web Mercator metres to lon/lat.
func (a *Area) Unproject(x, y float64) (lon, lat float64) {
	p := geo.NewPoint(x, y)
	geo.Mercator.Inverse(p)
	return p.Lng(), p.Lat()
}

// Cell returns the grid cell containing lon/lat. ok is false outside the
// area.
func (a *Area) Cell(lon, lat float64) (col, row int, ok bool) {
	x, y := a.Project(lon, lat)
	fc := (x - a.minX) / a.cellSize
	fr := (a.maxY - y) / a.cellSize
	if fc < 0 || fr < 0 {
		return 0, 0, false
	}
	col, row = int(fc), int(fr)
	if col >= a.cols || row >= a.rows {
		return 0, 0, false
	}
	return col, row, true
}

// CellCenter returns the lon/lat of the centre of a cell.
func (a *Area) CellCenter(col, row int) (lon, lat float64) {
	x := a.minX + (float64(col)+0.5)*a.cellSize
	y := a.maxY - (float64(row)+0.5)*a.cellSize
	return a.Unproject(x, y)
}

// Dims returns the number of columns and rows.
func (a *Area) Dims() (cols, rows int) {
	return a.cols, a.rows
}

// Bounds returns the lon/lat box the area was built from.
func (a *Area) Bounds() Bounds {
	return a.bounds
}

// CellSize returns the cell edge length in metres.
func (a *Area) CellSize() float64 {
	return a.cellSize
}
