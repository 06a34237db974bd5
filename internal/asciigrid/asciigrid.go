// Package asciigrid reads and writes ESRI ASCII grids: six header lines
// (ncols, nrows, xllcorner, yllcorner, cellsize, NODATA_value, in that order)
// followed by nrows lines of ncols whitespace separated values, row major top
// to bottom.
package asciigrid

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/atlas-map/terra_clipper/internal/grid"
	"gonum.org/v1/gonum/mat"
)

var headerKeys = [6]string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value"}

// Dataset is a fully decoded ASCII grid. The whole value matrix is held in
// memory, ReadBand just slices the requested window out of it.
type Dataset struct {
	transform *grid.GeoTransform
	nodata    float64
	values    *mat.Dense
}

// Open decodes the ASCII grid at the given path.
func Open(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes an ASCII grid from the reader. The six header lines must
// appear in the canonical order, a key mismatch or a value failing numeric
// parse aborts the read.
func Parse(r io.Reader) (*Dataset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	header := [6]float64{}
	for i, key := range headerKeys {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: missing %q line", grid.ErrMalformedHeader, key)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 || !strings.EqualFold(fields[0], key) {
			return nil, fmt.Errorf("%w: line %d: expected %q, got %q", grid.ErrMalformedHeader, i+1, key, scanner.Text())
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q value %q: %v", grid.ErrMalformedHeader, key, fields[1], err)
		}
		header[i] = value
	}

	cols, rows := int(header[0]), int(header[1])
	transform, err := grid.NewGeoTransform(header[2], header[3], header[4], cols, rows, grid.OriginLowerLeft)
	if err != nil {
		return nil, err
	}

	values := mat.NewDense(rows, cols, nil)
	for j := 0; j < rows; j++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: expected %d data rows, got %d", grid.ErrMalformedHeader, rows, j)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", grid.ErrMalformedHeader, j, len(fields), cols)
		}
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d value %q: %v", grid.ErrMalformedHeader, j, field, err)
			}
			values.Set(j, i, v)
		}
	}

	return &Dataset{
		transform: transform,
		nodata:    header[5],
		values:    values,
	}, nil
}

func (d *Dataset) Transform() *grid.GeoTransform {
	return d.transform
}

func (d *Dataset) NodataValue() (float64, bool) {
	return d.nodata, true
}

func (d *Dataset) Width() int {
	return d.transform.Cols
}

func (d *Dataset) Height() int {
	return d.transform.Rows
}

// ReadBand returns a copy of the requested pixel window, row 0 north.
func (d *Dataset) ReadBand(xOff, yOff, width, height int) (*mat.Dense, error) {
	if xOff < 0 || yOff < 0 || xOff+width > d.Width() || yOff+height > d.Height() {
		return nil, fmt.Errorf("window %d,%d %dx%d outside grid %dx%d", xOff, yOff, width, height, d.Width(), d.Height())
	}

	out := mat.NewDense(height, width, nil)
	out.Copy(d.values.Slice(yOff, yOff+height, xOff, xOff+width))
	return out, nil
}

// Write emits an ASCII grid. Missing (NaN) values are replaced with the
// declared nodata value, the six header lines are reproduced byte for byte in
// the canonical order.
func Write(w io.Writer, t *grid.GeoTransform, nodata float64, values *mat.Dense) error {
	rows, cols := values.Dims()
	if cols != t.Cols || rows != t.Rows {
		return fmt.Errorf("matrix shape %dx%d does not match transform %dx%d", cols, rows, t.Cols, t.Rows)
	}

	llx, lly := t.LowerLeft()
	buffered := bufio.NewWriter(w)
	fmt.Fprintf(buffered, "ncols %d\n", t.Cols)
	fmt.Fprintf(buffered, "nrows %d\n", t.Rows)
	fmt.Fprintf(buffered, "xllcorner %s\n", formatValue(llx))
	fmt.Fprintf(buffered, "yllcorner %s\n", formatValue(lly))
	fmt.Fprintf(buffered, "cellsize %s\n", formatValue(t.CellSize))
	fmt.Fprintf(buffered, "NODATA_value %s\n", formatValue(nodata))

	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			if i > 0 {
				if err := buffered.WriteByte(' '); err != nil {
					return err
				}
			}
			v := values.At(j, i)
			if math.IsNaN(v) {
				v = nodata
			}
			if _, err := buffered.WriteString(formatValue(v)); err != nil {
				return err
			}
		}
		if err := buffered.WriteByte('\n'); err != nil {
			return err
		}
	}

	return buffered.Flush()
}

// WriteFile writes an ASCII grid to the given path.
func WriteFile(path string, t *grid.GeoTransform, nodata float64, values *mat.Dense) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := Write(file, t, nodata, values); err != nil {
		return err
	}
	return file.Sync()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
