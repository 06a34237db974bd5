package grid

import (
	"errors"
	"testing"
)

func TestRoundCell(t *testing.T) {
	if got := RoundCell(9.999999); got != 10 {
		t.Errorf("expected 9.999999 to round to 10, got %f", got)
	}
	if got := RoundCell(0.333333); got != 0.33 {
		t.Errorf("expected 0.333333 to round to 0.33, got %f", got)
	}
	if got := RoundCell(10); got != 10 {
		t.Errorf("expected 10 to stay 10, got %f", got)
	}
}

func TestNewGeoTransformRejectsBadShapes(t *testing.T) {
	if _, err := NewGeoTransform(0, 0, 0, 10, 10, OriginLowerLeft); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader for zero cell size, got %v", err)
	}
	if _, err := NewGeoTransform(0, 0, -5, 10, 10, OriginLowerLeft); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader for negative cell size, got %v", err)
	}
	if _, err := NewGeoTransform(0, 0, 10, 0, 10, OriginLowerLeft); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader for zero columns, got %v", err)
	}
}

// TestGeoTransformCorners verifies that both origin conventions resolve to the
// same world extent
func TestGeoTransformCorners(t *testing.T) {
	lowerLeft, err := NewGeoTransform(0, 0, 10, 10, 10, OriginLowerLeft)
	if err != nil {
		t.Fatal(err)
	}
	upperLeft, err := NewGeoTransform(0, 100, 10, 10, 10, OriginUpperLeft)
	if err != nil {
		t.Fatal(err)
	}

	for _, transform := range []*GeoTransform{lowerLeft, upperLeft} {
		llx, lly := transform.LowerLeft()
		urx, ury := transform.UpperRight()
		if llx != 0 || lly != 0 {
			t.Errorf("%s: expected lower left (0, 0), got (%f, %f)", transform.Origin.String(), llx, lly)
		}
		if urx != 100 || ury != 100 {
			t.Errorf("%s: expected upper right (100, 100), got (%f, %f)", transform.Origin.String(), urx, ury)
		}
	}
}

func TestNewGeoTransformFromAffine(t *testing.T) {
	transform, err := NewGeoTransformFromAffine([6]float64{0, 10, 0, 100, 0, -10}, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if transform.Origin != OriginUpperLeft {
		t.Errorf("expected upper left origin, got %s", transform.Origin.String())
	}
	if transform.OriginX != 0 || transform.OriginY != 100 {
		t.Errorf("expected origin (0, 100), got (%f, %f)", transform.OriginX, transform.OriginY)
	}
	if transform.CellSize != 10 {
		t.Errorf("expected cell size 10, got %f", transform.CellSize)
	}
}

func TestNewGeoTransformFromAffineRejectsShear(t *testing.T) {
	if _, err := NewGeoTransformFromAffine([6]float64{0, 10, 0.5, 100, 0, -10}, 10, 10); !errors.Is(err, ErrUnsupportedTransform) {
		t.Errorf("expected ErrUnsupportedTransform for sheared raster, got %v", err)
	}
	if _, err := NewGeoTransformFromAffine([6]float64{0, 10, 0, 100, 0, 10}, 10, 10); !errors.Is(err, ErrUnsupportedTransform) {
		t.Errorf("expected ErrUnsupportedTransform for south up raster, got %v", err)
	}
}
