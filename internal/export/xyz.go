// Package export writes extraction results to simple text based formats.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/atlas-map/terra_clipper/internal/data"
)

// WriteXYZ writes parallel coordinate/value arrays as whitespace separated
// "x y z" lines. The three slices must have equal length.
func WriteXYZ(w io.Writer, x, y, z []float64) error {
	if len(x) != len(y) || len(x) != len(z) {
		return fmt.Errorf("coordinate arrays out of sync: %d/%d/%d", len(x), len(y), len(z))
	}

	buffered := bufio.NewWriter(w)
	for i := range x {
		if _, err := fmt.Fprintf(buffered, "%f %f %f\n", x[i], y[i], z[i]); err != nil {
			return err
		}
	}
	return buffered.Flush()
}

// WriteXYZFile writes parallel coordinate/value arrays to the given path.
func WriteXYZFile(path string, x, y, z []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteXYZ(file, x, y, z); err != nil {
		return err
	}
	return file.Sync()
}

// WritePointsXYZ writes lidar points as "x y z" lines, preserving order.
func WritePointsXYZ(w io.Writer, points []*data.Point) error {
	buffered := bufio.NewWriter(w)
	for _, point := range points {
		if _, err := fmt.Fprintf(buffered, "%f %f %f\n", point.X, point.Y, point.Z); err != nil {
			return err
		}
	}
	return buffered.Flush()
}

// WritePointsXYZFile writes lidar points to the given path.
func WritePointsXYZFile(path string, points []*data.Point) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WritePointsXYZ(file, points); err != nil {
		return err
	}
	return file.Sync()
}
