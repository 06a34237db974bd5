// Package pointcloud filters decoded lidar points by combined spatial and
// classification masks.
package pointcloud

import (
	"github.com/atlas-map/terra_clipper/internal/data"
	"github.com/atlas-map/terra_clipper/internal/geometry"
)

// Standard ASPRS class codes used by the filter policies.
const (
	ClassGround    = 2
	ClassLowVeg    = 3
	ClassMediumVeg = 4
	ClassHighVeg   = 5
)

type ClassPolicy int

const (
	// keep every point regardless of class
	ClassAll ClassPolicy = iota
	// keep ground and vegetation points (classes 2,3,4,5)
	ClassGroundAndCanopy
	// keep vegetation points only (classes 3,4,5)
	ClassCanopyOnly
)

func (p ClassPolicy) String() string {
	switch p {
	case ClassGroundAndCanopy:
		return "GROUND_AND_CANOPY"
	case ClassCanopyOnly:
		return "CANOPY_ONLY"
	default:
		return "ALL"
	}
}

// PolicyFromFlags maps the two historical boolean switches onto a policy.
// When both ground inclusion and all inclusion are requested, ground
// inclusion takes precedence. This is the documented precedence rule, not an
// error.
func PolicyFromFlags(includeGround, includeAll bool) ClassPolicy {
	if includeGround {
		return ClassGroundAndCanopy
	}
	if includeAll {
		return ClassAll
	}
	return ClassCanopyOnly
}

// keeps reports whether the policy retains the given class code.
func (p ClassPolicy) keeps(class uint8) bool {
	switch p {
	case ClassAll:
		return true
	case ClassGroundAndCanopy:
		return class == ClassGround || class == ClassLowVeg || class == ClassMediumVeg || class == ClassHighVeg
	default:
		return class == ClassLowVeg || class == ClassMediumVeg || class == ClassHighVeg
	}
}

// Filter returns the points passing both the spatial and the classification
// mask. A nil bbox passes every point spatially, bbox edges are inclusive.
// The input order is preserved and the input slice is never mutated, the
// result is built in a single compaction pass.
func Filter(points []*data.Point, bbox *geometry.BoundingBox, policy ClassPolicy) []*data.Point {
	kept := make([]*data.Point, 0, len(points))
	for _, point := range points {
		if !policy.keeps(point.Classification) {
			continue
		}
		if bbox != nil && !bbox.Contains(point.X, point.Y) {
			continue
		}
		kept = append(kept, point)
	}
	return kept
}
