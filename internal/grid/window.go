package grid

import (
	"fmt"
	"math"

	"github.com/atlas-map/terra_clipper/internal/geometry"
	"github.com/paulmach/orb"
)

// Request is a world space bounding box supplied by the caller. Bounds are
// expected ordered, inverted requests are rejected by Resolve.
type Request struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// Window is a validated pixel space read window against a dataset. The pixel
// window always lies inside [0,Cols)x[0,Rows), YOff counts rows from the top
// (north) of the raster. XMin/XMax/YMin/YMax hold the cell aligned world
// extent actually covered, which is never smaller than the requested extent
// when Clamped is false.
type Window struct {
	XOff   int
	YOff   int
	Width  int
	Height int

	// true when the request exceeded the dataset extent and was clamped
	Clamped bool

	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// Resolve translates a world space request into a pixel window against the
// dataset described by t.
//
// Overlap is checked corner-wise: the request is accepted if at least one of
// its four corners lies inside the dataset extent. A thin request crossing
// the whole dataset with no corner inside is therefore rejected even though
// it geometrically overlaps. Tightening this to a full rectangle
// intersection would change which requests are accepted, so the permissive
// corner test is kept on purpose.
//
// Edges exceeding the dataset are clamped and reported via Clamped rather
// than failing, callers rely on receiving the maximal available window. The
// snapped window is always a superset of the (clamped) request: minimums
// snap down, maximums snap up, and a boundary landing exactly on a cell edge
// keeps the cell that needs it.
func Resolve(t *GeoTransform, req Request) (*Window, error) {
	if req.XMin > req.XMax || req.YMin > req.YMax {
		return nil, fmt.Errorf("%w: min corner (%f, %f) exceeds max corner (%f, %f)",
			ErrInvalidRequest, req.XMin, req.YMin, req.XMax, req.YMax)
	}

	bound := t.Bound()
	if !anyCornerInside(bound, req) {
		return nil, fmt.Errorf("%w: request x[%f, %f] y[%f, %f] vs dataset x[%f, %f] y[%f, %f]",
			ErrOutOfBounds, req.XMin, req.XMax, req.YMin, req.YMax,
			bound.Min[0], bound.Max[0], bound.Min[1], bound.Max[1])
	}

	llx, lly := t.LowerLeft()
	urx, ury := t.UpperRight()

	clamped := false
	xmin, xmax, ymin, ymax := req.XMin, req.XMax, req.YMin, req.YMax
	if xmin < llx {
		xmin = llx
		clamped = true
	}
	if xmax > urx {
		xmax = urx
		clamped = true
	}
	if ymin < lly {
		ymin = lly
		clamped = true
	}
	if ymax > ury {
		ymax = ury
		clamped = true
	}

	cs := t.CellSize

	// snap the min corner down and the max corner up to cell boundaries,
	// stepping from the dataset origin in cell size increments
	xOff := int(math.Floor((xmin - llx) / cs))
	worldXMax := llx + math.Ceil((xmax-llx)/cs)*cs
	if worldXMax < xmax {
		// floating point residue left the snapped edge short of the request
		worldXMax += cs
	}

	yBottomOff := int(math.Floor((ymin - lly) / cs))
	worldYMax := lly + math.Ceil((ymax-lly)/cs)*cs
	if worldYMax < ymax {
		worldYMax += cs
	}
	yOff := int(math.Round((ury - worldYMax) / cs))

	// negative offsets should be impossible after the clamp above but can
	// arise from floating point edge cases, floor them to zero
	if xOff < 0 {
		xOff = 0
	}
	if yOff < 0 {
		yOff = 0
	}
	if yBottomOff < 0 {
		yBottomOff = 0
	}

	worldXMin := llx + float64(xOff)*cs
	width := int(math.Round((worldXMax - worldXMin) / cs))
	height := t.Rows - yOff - yBottomOff

	// the window never extends past the dataset shape
	if xOff+width > t.Cols {
		width = t.Cols - xOff
	}
	if yOff+height > t.Rows {
		height = t.Rows - yOff
	}
	if width < 1 {
		xOff = min(xOff, t.Cols-1)
		width = 1
	}
	if height < 1 {
		yOff = min(yOff, t.Rows-1)
		height = 1
	}

	// recompute the covered extent from the final pixel window so world and
	// pixel coordinates can never disagree
	worldXMin = llx + float64(xOff)*cs
	worldXMax = worldXMin + float64(width)*cs
	worldYMax = ury - float64(yOff)*cs
	worldYMin := worldYMax - float64(height)*cs

	return &Window{
		XOff:    xOff,
		YOff:    yOff,
		Width:   width,
		Height:  height,
		Clamped: clamped,
		XMin:    worldXMin,
		XMax:    worldXMax,
		YMin:    worldYMin,
		YMax:    worldYMax,
	}, nil
}

func anyCornerInside(bound orb.Bound, req Request) bool {
	box := geometry.NewBoundingBox(req.XMin, req.XMax, req.YMin, req.YMax)
	for _, corner := range box.Corners() {
		if bound.Contains(orb.Point{corner.X, corner.Y}) {
			return true
		}
	}
	return false
}
