package pkg

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atlas-map/terra_clipper/internal/asciigrid"
	"github.com/atlas-map/terra_clipper/internal/geotiff"
	"github.com/atlas-map/terra_clipper/internal/grid"
	"gonum.org/v1/gonum/mat"
)

type SourceKind int

const (
	SourceTextGrid SourceKind = iota
	SourceRaster
	SourcePointCloud
)

func (k SourceKind) String() string {
	switch k {
	case SourceTextGrid:
		return "TEXTGRID"
	case SourceRaster:
		return "RASTER"
	default:
		return "POINTCLOUD"
	}
}

// DetectSourceKind maps a file extension onto its decoder variant.
func DetectSourceKind(path string) (SourceKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asc", ".txt":
		return SourceTextGrid, nil
	case ".tif", ".tiff":
		return SourceRaster, nil
	case ".las", ".laz":
		return SourcePointCloud, nil
	}
	return 0, fmt.Errorf("%w: %q", grid.ErrUnrecognizedExtension, filepath.Ext(path))
}

// GridSource is the decoder capability shared by the gridded dataset
// variants: a normalized geotransform, the declared nodata value and a
// windowed band read.
type GridSource interface {
	Transform() *grid.GeoTransform
	NodataValue() (float64, bool)
	Width() int
	Height() int
	ReadBand(xOff, yOff, width, height int) (*mat.Dense, error)
}

// OpenGridSource opens a gridded dataset, dispatching on its file extension.
func OpenGridSource(path string) (GridSource, error) {
	kind, err := DetectSourceKind(path)
	if err != nil {
		return nil, err
	}

	switch kind {
	case SourceTextGrid:
		return asciigrid.Open(path)
	case SourceRaster:
		dataset, err := geotiff.Open(path)
		if err != nil {
			return nil, err
		}
		affine, err := dataset.GeoTransform()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", grid.ErrMalformedHeader, path, err)
		}
		transform, err := grid.NewGeoTransformFromAffine(affine, dataset.Width(), dataset.Height())
		if err != nil {
			return nil, err
		}
		return &rasterSource{Dataset: dataset, transform: transform}, nil
	default:
		return nil, fmt.Errorf("dataset %s holds a point cloud, not a grid", path)
	}
}

// rasterSource pairs a decoded geotiff with its normalized transform.
type rasterSource struct {
	*geotiff.Dataset
	transform *grid.GeoTransform
}

func (s *rasterSource) Transform() *grid.GeoTransform {
	return s.transform
}
