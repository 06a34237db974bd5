package pkg

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/atlas-map/terra_clipper/internal/asciigrid"
	"github.com/atlas-map/terra_clipper/internal/clipper"
	"github.com/atlas-map/terra_clipper/internal/export"
	"github.com/atlas-map/terra_clipper/internal/geometry"
	"github.com/atlas-map/terra_clipper/internal/grid"
	"github.com/atlas-map/terra_clipper/tools"
	"github.com/golang/glog"
	"github.com/google/uuid"
)

// fallback nodata written to ascii grid output when the source declares none
const defaultNodata = -9999.0

// file extensions the grid command picks up in folder mode
var gridExtensions = []string{".asc", ".txt", ".tif", ".tiff"}

type IClipper interface {
	RunClipper(opts *clipper.Options) error
}

// GridClipper extracts a windowed, coordinate aligned sample from a gridded
// dataset and writes it as an ascii grid or as vectorized xyz lines.
type GridClipper struct {
	fileFinder tools.FileFinder
}

func NewGridClipper(fileFinder tools.FileFinder) IClipper {
	return &GridClipper{
		fileFinder: fileFinder,
	}
}

func (c *GridClipper) RunClipper(opts *clipper.Options) error {
	glog.Infoln("Preparing list of files to process...")

	gridFiles := c.fileFinder.GetFilesToProcess(opts, gridExtensions)
	for i, filePath := range gridFiles {
		glog.Infof("grid_file path %d [%s]", i+1, filePath)
	}

	for i, filePath := range gridFiles {
		tools.LogOutput("Processing file " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(gridFiles)))
		if err := c.processGridFile(filePath, opts); err != nil {
			return err
		}
	}
	return nil
}

func (c *GridClipper) processGridFile(filePath string, opts *clipper.Options) error {
	jobID := uuid.New().String()
	glog.Infof("grid job [%s] input [%s]", jobID, filePath)

	source, err := OpenGridSource(filePath)
	if err != nil {
		return err
	}
	transform := source.Transform()
	glog.Infoln("dataset shape", transform.Cols, "x", transform.Rows,
		", cell size", transform.CellSize, ", origin", transform.Origin.String())

	win, err := resolveWindow(transform, opts.Window)
	if err != nil {
		return err
	}
	if win.Clamped {
		glog.Warningf("job [%s] request exceeds dataset bounds, window clamped to x[%f, %f] y[%f, %f]",
			jobID, win.XMin, win.XMax, win.YMin, win.YMax)
	}
	glog.Infof("job [%s] pixel window offset (%d, %d) size %dx%d", jobID, win.XOff, win.YOff, win.Width, win.Height)

	buffer, err := source.ReadBand(win.XOff, win.YOff, win.Width, win.Height)
	if err != nil {
		return err
	}

	policy := grid.NodataPolicy{MaskZero: opts.GridOptions.MaskZero}
	if opts.GridOptions.Nodata != nil {
		policy.Nodata = opts.GridOptions.Nodata
	} else if declared, ok := source.NodataValue(); ok {
		policy.Nodata = &declared
	}

	sampleOpts := grid.SampleOptions{
		Vectorize: opts.GridOptions.Vectorize || opts.GridOptions.Compact,
		Compact:   opts.GridOptions.Compact,
	}
	result, err := grid.Sample(win, buffer, transform, policy, sampleOpts)
	if err != nil {
		return err
	}

	if err := c.writeResult(result, win, transform, policy, filePath, opts); err != nil {
		return err
	}

	if opts.CatalogPath != "" {
		if err := registerGrid(opts.CatalogPath, filePath, transform); err != nil {
			return err
		}
	}

	tools.LogOutput("> done processing", filepath.Base(filePath))
	return nil
}

func (c *GridClipper) writeResult(result *grid.SampleResult, win *grid.Window, transform *grid.GeoTransform, policy grid.NodataPolicy, filePath string, opts *clipper.Options) error {
	format := opts.GridOptions.Format
	if format == "" {
		format = clipper.FormatASCIIGrid
		if result.Vectorized {
			format = clipper.FormatXYZ
		}
	}

	outputPath := c.outputPath(filePath, format, opts)
	if err := tools.CreateDirectoryIfDoesNotExist(filepath.Dir(outputPath)); err != nil {
		return err
	}

	switch format {
	case clipper.FormatXYZ:
		if !result.Vectorized {
			return errors.New("xyz output requires vectorized sampling")
		}
		glog.Infof("writing %d samples to [%s]", len(result.Z), outputPath)
		return export.WriteXYZFile(outputPath, result.X, result.Y, result.Z)
	case clipper.FormatASCIIGrid:
		if result.Vectorized {
			return errors.New("vectorized samples cannot be written as an ascii grid")
		}
		windowTransform, err := grid.NewGeoTransform(win.XMin, win.YMin, transform.CellSize, win.Width, win.Height, grid.OriginLowerLeft)
		if err != nil {
			return err
		}
		nodata := defaultNodata
		if policy.Nodata != nil {
			nodata = *policy.Nodata
		}
		glog.Infof("writing %dx%d grid to [%s]", win.Width, win.Height, outputPath)
		return asciigrid.WriteFile(outputPath, windowTransform, nodata, result.Values)
	default:
		return fmt.Errorf("unsupported grid output format %q", format)
	}
}

func (c *GridClipper) outputPath(filePath string, format clipper.OutputFormat, opts *clipper.Options) string {
	if !opts.FolderProcessing {
		return opts.Output
	}

	extension := ".asc"
	if format == clipper.FormatXYZ {
		extension = ".xyz"
	}
	return filepath.Join(opts.Output, getFilenameWithoutExtension(filePath)+"_clip"+extension)
}

// resolveWindow translates the requested box, or the full dataset extent
// when no box was requested, into a pixel window.
func resolveWindow(transform *grid.GeoTransform, window *geometry.BoundingBox) (*grid.Window, error) {
	request := fullExtentRequest(transform)
	if window != nil {
		request = grid.Request{
			XMin: window.Xmin,
			XMax: window.Xmax,
			YMin: window.Ymin,
			YMax: window.Ymax,
		}
	}
	return grid.Resolve(transform, request)
}

func fullExtentRequest(transform *grid.GeoTransform) grid.Request {
	llx, lly := transform.LowerLeft()
	urx, ury := transform.UpperRight()
	return grid.Request{XMin: llx, XMax: urx, YMin: lly, YMax: ury}
}
