package pkg

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atlas-map/terra_clipper/internal/clipper"
	"github.com/atlas-map/terra_clipper/internal/data"
	"github.com/atlas-map/terra_clipper/internal/export"
	"github.com/atlas-map/terra_clipper/internal/pointcloud"
	lidario "github.com/atlas-map/terra_clipper/third_party/lasread"
	"github.com/atlas-map/terra_clipper/tools"
	"github.com/golang/glog"
	"github.com/google/uuid"
)

// PointsClipper filters lidar point clouds by a combined spatial and
// classification mask and writes the surviving subset.
type PointsClipper struct {
	fileFinder tools.FileFinder
}

func NewPointsClipper(fileFinder tools.FileFinder) IClipper {
	return &PointsClipper{
		fileFinder: fileFinder,
	}
}

func (c *PointsClipper) RunClipper(opts *clipper.Options) error {
	glog.Infoln("Preparing list of files to process...")

	lasFiles := c.fileFinder.GetFilesToProcess(opts, []string{".las", ".laz"})
	for i, filePath := range lasFiles {
		glog.Infof("las_file path %d [%s]", i+1, filePath)
	}

	for i, filePath := range lasFiles {
		tools.LogOutput("Processing file " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(lasFiles)))
		if err := c.processLasFile(filePath, opts); err != nil {
			return err
		}
	}
	return nil
}

func (c *PointsClipper) processLasFile(filePath string, opts *clipper.Options) error {
	jobID := uuid.New().String()
	glog.Infof("points job [%s] input [%s]", jobID, filePath)

	lasFile, err := lidario.NewLasFile(filePath, "r")
	if err != nil {
		return err
	}
	defer func() { _ = lasFile.Close() }()

	glog.Infoln("las_file num_of_points:", lasFile.Header.NumberPoints)

	points, err := c.readPoints(lasFile, opts.PointsOptions.ZOffset)
	if err != nil {
		return err
	}

	policy := pointcloud.PolicyFromFlags(opts.PointsOptions.IncludeGround, opts.PointsOptions.IncludeAll)
	kept := pointcloud.Filter(points, opts.Window, policy)
	glog.Infof("job [%s] kept %d/%d points with policy %s", jobID, len(kept), len(points), policy.String())

	outputPath := c.outputPath(filePath, opts)
	if err := tools.CreateDirectoryIfDoesNotExist(filepath.Dir(outputPath)); err != nil {
		return err
	}

	switch opts.PointsOptions.Format {
	case clipper.FormatXYZ:
		glog.Infof("writing %d points to [%s]", len(kept), outputPath)
		if err := export.WritePointsXYZFile(outputPath, kept); err != nil {
			return err
		}
	case clipper.FormatLAS, "":
		indices := make([]int, len(kept))
		for i, point := range kept {
			indices[i] = point.SourceIndex
		}
		glog.Infof("writing %d points to [%s]", len(kept), outputPath)
		if err := lasFile.WriteSubset(outputPath, indices); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported points output format %q", opts.PointsOptions.Format)
	}

	if opts.CatalogPath != "" {
		if err := registerPointCloud(opts.CatalogPath, filePath, &lasFile.Header); err != nil {
			return err
		}
	}

	tools.LogOutput("> done processing", filepath.Base(filePath))
	return nil
}

// Reads the given las file and preloads data in a list of Point
func (c *PointsClipper) readPoints(lasFile *lidario.LasFile, zOffset float64) ([]*data.Point, error) {
	points := make([]*data.Point, 0, lasFile.Header.NumberPoints)
	for i := 0; i < lasFile.Header.NumberPoints; i++ {
		record, err := lasFile.LasPoint(i)
		if err != nil {
			return nil, err
		}
		points = append(points, data.NewPoint(
			record.X,
			record.Y,
			record.Z+zOffset,
			record.Intensity,
			record.Classification,
			i,
		))
	}
	return points, nil
}

func (c *PointsClipper) outputPath(filePath string, opts *clipper.Options) string {
	if !opts.FolderProcessing {
		return opts.Output
	}

	extension := ".las"
	if opts.PointsOptions.Format == clipper.FormatXYZ {
		extension = ".xyz"
	}
	return filepath.Join(opts.Output, getFilenameWithoutExtension(filePath)+"_clip"+extension)
}

func getFilenameWithoutExtension(filePath string) string {
	name := filepath.Base(filePath)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
