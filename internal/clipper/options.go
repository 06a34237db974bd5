package clipper

import (
	"strings"

	"github.com/atlas-map/terra_clipper/internal/geometry"
)

type Command string

const (
	CommandGrid    Command = "grid"
	CommandPoints  Command = "points"
	CommandCatalog Command = "catalog"
)

type OutputFormat string

const (
	FormatASCIIGrid OutputFormat = "ASC"
	FormatXYZ       OutputFormat = "XYZ"
	FormatLAS       OutputFormat = "LAS"
)

func ParseOutputFormat(value string) OutputFormat {
	switch strings.Trim(strings.ToUpper(value), " ") {
	case "ASC":
		return FormatASCIIGrid
	case "XYZ":
		return FormatXYZ
	case "LAS":
		return FormatLAS
	}
	return ""
}

// Contains the options shared by all extraction commands
type Options struct {
	Input            string                // Input dataset file/folder
	Output           string                // Output file/folder
	Window           *geometry.BoundingBox // Requested world space window, nil extracts the full extent
	FolderProcessing bool                  // Enables processing of all matching files in the input folder
	Recursive        bool                  // Recursive lookup of input files in subfolders
	CatalogPath      string                // Optional sqlite catalog to register processed datasets in

	Command        Command
	GridOptions    *GridOptions
	PointsOptions  *PointsOptions
	CatalogOptions *CatalogOptions
}

type GridOptions struct {
	Nodata    *float64     // Overrides the nodata value declared by the dataset
	MaskZero  bool         // Additionally treat exact zero values as missing
	Vectorize bool         // Flatten the sampled grids into parallel x/y/z arrays
	Compact   bool         // Drop missing entries from the vectorized arrays
	Format    OutputFormat // ASC or XYZ
}

type PointsOptions struct {
	IncludeGround bool         // Keep ground points in addition to canopy points
	IncludeAll    bool         // Keep every classification (ground inclusion wins when both are set)
	ZOffset       float64      // Vertical offset in meters applied to points
	Format        OutputFormat // LAS or XYZ
}

type CatalogOptions struct {
	List bool // List registered datasets instead of registering new ones
}
