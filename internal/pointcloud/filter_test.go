package pointcloud

import (
	"testing"

	"github.com/atlas-map/terra_clipper/internal/data"
	"github.com/atlas-map/terra_clipper/internal/geometry"
)

func testCloud() []*data.Point {
	return []*data.Point{
		data.NewPoint(10, 10, 1, 0, 1, 0), // unclassified
		data.NewPoint(20, 20, 2, 0, 2, 1), // ground
		data.NewPoint(30, 30, 3, 0, 3, 2), // low vegetation
		data.NewPoint(40, 40, 4, 0, 4, 3), // medium vegetation
		data.NewPoint(50, 50, 5, 0, 5, 4), // high vegetation
		data.NewPoint(60, 60, 6, 0, 6, 5), // building
	}
}

func TestPolicyFromFlags(t *testing.T) {
	if got := PolicyFromFlags(false, false); got != ClassCanopyOnly {
		t.Errorf("expected default policy CANOPY_ONLY, got %s", got.String())
	}
	if got := PolicyFromFlags(true, false); got != ClassGroundAndCanopy {
		t.Errorf("expected GROUND_AND_CANOPY, got %s", got.String())
	}
	if got := PolicyFromFlags(false, true); got != ClassAll {
		t.Errorf("expected ALL, got %s", got.String())
	}
	// ground inclusion takes precedence when both switches are set
	if got := PolicyFromFlags(true, true); got != ClassGroundAndCanopy {
		t.Errorf("expected GROUND_AND_CANOPY when both flags are set, got %s", got.String())
	}
}

func TestFilterByClass(t *testing.T) {
	points := testCloud()

	cases := []struct {
		policy ClassPolicy
		want   []int // expected source indices, in input order
	}{
		{ClassAll, []int{0, 1, 2, 3, 4, 5}},
		{ClassGroundAndCanopy, []int{1, 2, 3, 4}},
		{ClassCanopyOnly, []int{2, 3, 4}},
	}
	for _, tc := range cases {
		t.Run(tc.policy.String(), func(t *testing.T) {
			kept := Filter(points, nil, tc.policy)
			if len(kept) != len(tc.want) {
				t.Fatalf("expected %d points, got %d", len(tc.want), len(kept))
			}
			for i, point := range kept {
				if point.SourceIndex != tc.want[i] {
					t.Errorf("position %d: expected source index %d, got %d", i, tc.want[i], point.SourceIndex)
				}
			}
		})
	}
}

// Box edges are inclusive: a point exactly on the boundary survives
func TestFilterBySpatialMask(t *testing.T) {
	points := testCloud()
	bbox := geometry.NewBoundingBox(20, 40, 20, 40)

	kept := Filter(points, bbox, ClassAll)
	if len(kept) != 3 {
		t.Fatalf("expected 3 points inside the box, got %d", len(kept))
	}
	for _, point := range kept {
		if point.X < 20 || point.X > 40 {
			t.Errorf("point at x %f escaped the box", point.X)
		}
	}
}

func TestFilterCombinedMasks(t *testing.T) {
	points := testCloud()
	bbox := geometry.NewBoundingBox(20, 40, 20, 40)

	kept := Filter(points, bbox, ClassCanopyOnly)
	if len(kept) != 2 {
		t.Fatalf("expected 2 points passing both masks, got %d", len(kept))
	}
	if kept[0].SourceIndex != 2 || kept[1].SourceIndex != 3 {
		t.Errorf("expected source indices 2 and 3, got %d and %d", kept[0].SourceIndex, kept[1].SourceIndex)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	points := testCloud()

	Filter(points, nil, ClassCanopyOnly)
	if len(points) != 6 {
		t.Errorf("input slice length changed to %d", len(points))
	}
	for i, point := range points {
		if point.SourceIndex != i {
			t.Errorf("input order disturbed at position %d", i)
		}
	}
}

func TestFilterEmptyInput(t *testing.T) {
	kept := Filter(nil, nil, ClassAll)
	if len(kept) != 0 {
		t.Errorf("expected empty output for empty input, got %d points", len(kept))
	}
}
