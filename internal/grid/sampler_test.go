package grid

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func sampleFixture(t *testing.T) (*GeoTransform, *Window, *mat.Dense) {
	t.Helper()
	transform, err := NewGeoTransform(0, 0, 10, 2, 2, OriginLowerLeft)
	if err != nil {
		t.Fatal(err)
	}
	win, err := Resolve(transform, Request{XMin: 0, XMax: 20, YMin: 0, YMax: 20})
	if err != nil {
		t.Fatal(err)
	}
	// row 0 is the northernmost row
	buf := mat.NewDense(2, 2, []float64{1, 2, 3, -9999})
	return transform, win, buf
}

// TestSampleCellCenters verifies that sampled coordinates land on cell
// centers with row 0 paired to the northernmost y
func TestSampleCellCenters(t *testing.T) {
	transform, win, buf := sampleFixture(t)
	nodata := -9999.0

	result, err := Sample(win, buf, transform, NodataPolicy{Nodata: &nodata}, SampleOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Vectorized {
		t.Fatal("expected grid shaped result")
	}

	if x := result.GridX.At(0, 0); x != 5 {
		t.Errorf("expected top left cell center x 5, got %f", x)
	}
	if y := result.GridY.At(0, 0); y != 15 {
		t.Errorf("expected top left cell center y 15, got %f", y)
	}
	if y := result.GridY.At(1, 0); y != 5 {
		t.Errorf("expected bottom row cell center y 5, got %f", y)
	}
	if !math.IsNaN(result.Values.At(1, 1)) {
		t.Errorf("expected nodata cell masked to NaN, got %f", result.Values.At(1, 1))
	}
	if v := result.Values.At(0, 0); v != 1 {
		t.Errorf("expected value 1 at top left, got %f", v)
	}
}

// Masking must never touch the caller's buffer
func TestSampleDoesNotMutateInput(t *testing.T) {
	transform, win, buf := sampleFixture(t)
	nodata := -9999.0

	if _, err := Sample(win, buf, transform, NodataPolicy{Nodata: &nodata}, SampleOptions{}); err != nil {
		t.Fatal(err)
	}
	if v := buf.At(1, 1); v != -9999 {
		t.Errorf("input buffer was mutated, expected -9999, got %f", v)
	}
}

// TestSampleCompact verifies that compaction drops missing entries while
// keeping the coordinate and value arrays in sync
func TestSampleCompact(t *testing.T) {
	transform, win, buf := sampleFixture(t)
	nodata := -9999.0

	result, err := Sample(win, buf, transform, NodataPolicy{Nodata: &nodata}, SampleOptions{Vectorize: true, Compact: true})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Vectorized {
		t.Fatal("expected vectorized result")
	}

	if len(result.X) != len(result.Y) || len(result.X) != len(result.Z) {
		t.Fatalf("coordinate arrays out of sync: %d/%d/%d", len(result.X), len(result.Y), len(result.Z))
	}
	if len(result.Z) != 3 {
		t.Fatalf("expected 3 surviving samples, got %d", len(result.Z))
	}
	for i, z := range result.Z {
		if math.IsNaN(z) {
			t.Errorf("compacted output carries NaN at index %d", i)
		}
	}

	wantX := []float64{5, 15, 5}
	wantY := []float64{15, 15, 5}
	wantZ := []float64{1, 2, 3}
	for i := range wantZ {
		if result.X[i] != wantX[i] || result.Y[i] != wantY[i] || result.Z[i] != wantZ[i] {
			t.Errorf("sample %d: expected (%f, %f, %f), got (%f, %f, %f)",
				i, wantX[i], wantY[i], wantZ[i], result.X[i], result.Y[i], result.Z[i])
		}
	}
}

func TestSampleVectorizeKeepsMissing(t *testing.T) {
	transform, win, buf := sampleFixture(t)
	nodata := -9999.0

	result, err := Sample(win, buf, transform, NodataPolicy{Nodata: &nodata}, SampleOptions{Vectorize: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Z) != 4 {
		t.Fatalf("expected 4 samples without compaction, got %d", len(result.Z))
	}
	if !math.IsNaN(result.Z[3]) {
		t.Errorf("expected the masked sample to stay as NaN, got %f", result.Z[3])
	}
}

func TestSampleMaskZero(t *testing.T) {
	transform, win, _ := sampleFixture(t)
	buf := mat.NewDense(2, 2, []float64{1, 0, 3, 4})

	result, err := Sample(win, buf, transform, NodataPolicy{MaskZero: true}, SampleOptions{Vectorize: true, Compact: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Z) != 3 {
		t.Errorf("expected the zero value dropped, got %d samples", len(result.Z))
	}
}

func TestSampleRejectsShapeMismatch(t *testing.T) {
	transform, win, _ := sampleFixture(t)
	buf := mat.NewDense(3, 2, nil)

	if _, err := Sample(win, buf, transform, NodataPolicy{}, SampleOptions{}); err == nil {
		t.Error("expected an error for a buffer not matching the window shape")
	}
}
