package grid

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"
)

type OriginKind int

const (
	// origin is the upper left corner of the grid, rows grow southwards (geotiff convention)
	OriginUpperLeft OriginKind = iota
	// origin is the lower left corner of the grid, rows grow northwards (esri ascii convention)
	OriginLowerLeft
)

func (k OriginKind) String() string {
	if k == OriginLowerLeft {
		return "LOWERLEFT"
	}
	return "UPPERLEFT"
}

// cellSizeDigits is the number of decimal digits the cell size is rounded to
// before being used as a step increment. Window clipping steps in cell size
// increments from the dataset origin, so the same rounded value has to be used
// everywhere or the arithmetic diverges by one cell.
const cellSizeDigits = 2

// RoundCell rounds a cell size to the step tolerance shared by all window
// arithmetic.
func RoundCell(size float64) float64 {
	rounded, _ := decimal.NewFromFloat(size).Round(cellSizeDigits).Float64()
	return rounded
}

// GeoTransform is the immutable pixel to world mapping of a grid dataset:
// reference corner, square cell size and grid shape. Built once per dataset
// open by a header reader and never mutated afterwards.
type GeoTransform struct {
	OriginX  float64
	OriginY  float64
	CellSize float64
	Cols     int
	Rows     int
	Origin   OriginKind
}

// NewGeoTransform validates the grid shape and returns the transform with the
// cell size already rounded to the step tolerance.
func NewGeoTransform(originX, originY, cellSize float64, cols, rows int, origin OriginKind) (*GeoTransform, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("%w: cell size %f must be positive", ErrMalformedHeader, cellSize)
	}
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("%w: grid shape %dx%d must be at least 1x1", ErrMalformedHeader, cols, rows)
	}

	return &GeoTransform{
		OriginX:  originX,
		OriginY:  originY,
		CellSize: RoundCell(cellSize),
		Cols:     cols,
		Rows:     rows,
		Origin:   origin,
	}, nil
}

// NewGeoTransformFromAffine builds a transform from a gdal style 6 element
// affine [x0 dx sx y0 sy dy]. Only axis aligned north up rasters are
// supported, anything sheared or rotated is rejected.
func NewGeoTransformFromAffine(affine [6]float64, cols, rows int) (*GeoTransform, error) {
	x0, dx, sx, y0, sy, dy := affine[0], affine[1], affine[2], affine[3], affine[4], affine[5]
	if sx != 0 || sy != 0 {
		return nil, fmt.Errorf("%w: shear coefficients %f/%f are not zero", ErrUnsupportedTransform, sx, sy)
	}
	if dy >= 0 {
		return nil, fmt.Errorf("%w: row step %f must be negative", ErrUnsupportedTransform, dy)
	}
	if cellSize := RoundCell(dx); cellSize <= 0 {
		return nil, fmt.Errorf("%w: column step %f must be positive", ErrUnsupportedTransform, dx)
	}

	return NewGeoTransform(x0, y0, dx, cols, rows, OriginUpperLeft)
}

// LowerLeft returns the world coordinates of the dataset's lower left corner.
func (t *GeoTransform) LowerLeft() (float64, float64) {
	if t.Origin == OriginLowerLeft {
		return t.OriginX, t.OriginY
	}
	return t.OriginX, t.OriginY - float64(t.Rows)*t.CellSize
}

// UpperRight returns the world coordinates of the dataset's upper right corner.
func (t *GeoTransform) UpperRight() (float64, float64) {
	if t.Origin == OriginLowerLeft {
		return t.OriginX + float64(t.Cols)*t.CellSize, t.OriginY + float64(t.Rows)*t.CellSize
	}
	return t.OriginX + float64(t.Cols)*t.CellSize, t.OriginY
}

// Bound returns the dataset extent as an orb.Bound.
func (t *GeoTransform) Bound() orb.Bound {
	llx, lly := t.LowerLeft()
	urx, ury := t.UpperRight()
	return orb.Bound{
		Min: orb.Point{llx, lly},
		Max: orb.Point{urx, ury},
	}
}
