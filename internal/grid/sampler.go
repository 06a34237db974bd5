package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NodataPolicy describes which raw values are treated as missing before any
// further processing. Matching is exact, no tolerance is applied.
type NodataPolicy struct {
	// value declared as nodata by the dataset, nil when none is declared
	Nodata *float64

	// additionally treat exact zero values as missing
	MaskZero bool
}

// SampleOptions control the shape of the sampler output.
type SampleOptions struct {
	// flatten the 2D grids into parallel 1D coordinate/value arrays
	Vectorize bool

	// drop missing entries from the vectorized arrays, only meaningful
	// together with Vectorize
	Compact bool
}

// SampleResult pairs cell center coordinates with sampled values. Missing
// values are represented as NaN. Either the 2D grids or the 1D vectors are
// populated depending on SampleOptions.Vectorize; in compacted form the X, Y
// and Z slices always have equal length and Z carries no NaN.
type SampleResult struct {
	GridX  *mat.Dense
	GridY  *mat.Dense
	Values *mat.Dense

	X []float64
	Y []float64
	Z []float64

	CellSize   float64
	Vectorized bool
}

// Sample synthesizes cell center world coordinates for the resolved window
// and pairs them with the raw buffer values after nodata masking.
//
// The raw buffer is stored row major with row 0 being the northernmost row,
// while world y grows northwards. The sampler owns this axis orientation: row
// j is paired with y = YMax - cs*j - cs/2, so getting the pairing wrong here
// would silently mirror the output north-south.
func Sample(win *Window, buf *mat.Dense, t *GeoTransform, policy NodataPolicy, opts SampleOptions) (*SampleResult, error) {
	rows, cols := buf.Dims()
	if rows != win.Height || cols != win.Width {
		return nil, fmt.Errorf("buffer shape %dx%d does not match window %dx%d", rows, cols, win.Height, win.Width)
	}

	cs := t.CellSize
	masked := mask(buf, policy)

	if !opts.Vectorize {
		gridX := mat.NewDense(rows, cols, nil)
		gridY := mat.NewDense(rows, cols, nil)
		for j := 0; j < rows; j++ {
			y := win.YMax - cs*float64(j) - cs/2
			for i := 0; i < cols; i++ {
				gridX.Set(j, i, win.XMin+cs*float64(i)+cs/2)
				gridY.Set(j, i, y)
			}
		}
		return &SampleResult{
			GridX:    gridX,
			GridY:    gridY,
			Values:   masked,
			CellSize: cs,
		}, nil
	}

	xs := make([]float64, 0, rows*cols)
	ys := make([]float64, 0, rows*cols)
	zs := make([]float64, 0, rows*cols)
	for j := 0; j < rows; j++ {
		y := win.YMax - cs*float64(j) - cs/2
		for i := 0; i < cols; i++ {
			z := masked.At(j, i)
			if opts.Compact && math.IsNaN(z) {
				continue
			}
			xs = append(xs, win.XMin+cs*float64(i)+cs/2)
			ys = append(ys, y)
			zs = append(zs, z)
		}
	}

	return &SampleResult{
		X:          xs,
		Y:          ys,
		Z:          zs,
		CellSize:   cs,
		Vectorized: true,
	}, nil
}

// mask builds a new buffer with missing values replaced by NaN. The input
// buffer is never mutated, coordinate and value arrays can therefore not go
// out of sync mid-masking.
func mask(buf *mat.Dense, policy NodataPolicy) *mat.Dense {
	rows, cols := buf.Dims()
	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			v := buf.At(j, i)
			if policy.Nodata != nil && v == *policy.Nodata {
				v = math.NaN()
			} else if policy.MaskZero && v == 0 {
				v = math.NaN()
			}
			out.Set(j, i, v)
		}
	}
	return out
}
