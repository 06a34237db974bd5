package geometry

import (
	"github.com/paulmach/orb"
)

// A 2D axis aligned bounding box in world coordinates.
// Zero Z extent boxes are used for raster windows, lidar boxes carry Zmin/Zmax too.
type BoundingBox struct {
	Xmin float64
	Xmax float64
	Ymin float64
	Ymax float64
	Zmin float64
	Zmax float64
}

func NewBoundingBox(xmin, xmax, ymin, ymax float64) *BoundingBox {
	return &BoundingBox{
		Xmin: xmin,
		Xmax: xmax,
		Ymin: ymin,
		Ymax: ymax,
	}
}

func NewBoundingBox3D(xmin, xmax, ymin, ymax, zmin, zmax float64) *BoundingBox {
	return &BoundingBox{
		Xmin: xmin,
		Xmax: xmax,
		Ymin: ymin,
		Ymax: ymax,
		Zmin: zmin,
		Zmax: zmax,
	}
}

// Bound returns the box as an orb.Bound for planar containment tests.
func (b *BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.Xmin, b.Ymin},
		Max: orb.Point{b.Xmax, b.Ymax},
	}
}

// Contains reports whether the point (x, y) lies inside the box, edges included.
func (b *BoundingBox) Contains(x, y float64) bool {
	return b.Bound().Contains(orb.Point{x, y})
}

// Corners returns the four planar corners of the box.
func (b *BoundingBox) Corners() [4]Coordinate {
	return [4]Coordinate{
		{X: b.Xmin, Y: b.Ymin},
		{X: b.Xmin, Y: b.Ymax},
		{X: b.Xmax, Y: b.Ymin},
		{X: b.Xmax, Y: b.Ymax},
	}
}

// Inverted reports whether the box has a negative planar extent.
func (b *BoundingBox) Inverted() bool {
	return b.Xmin > b.Xmax || b.Ymin > b.Ymax
}
