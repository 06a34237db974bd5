package tools

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/atlas-map/terra_clipper/internal/geometry"
)

const (
	CommandGrid    = "grid"
	CommandPoints  = "points"
	CommandCatalog = "catalog"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type ExtractFlags struct {
	Input            *string `json:"input"`
	Output           *string `json:"output"`
	BBox             *string `json:"bbox"`
	Catalog          *string `json:"catalog"`
	Config           *string `json:"config"`
	FolderProcessing *bool
	Recursive        *bool
	Silent           *bool
	LogTimestamp     *bool
	Help             *bool
	Version          *bool
}

type FlagsForCommandGrid struct {
	ExtractFlags
	Nodata    *string `json:"nodata"`
	MaskZero  *bool
	Vectorize *bool
	Compact   *bool
	Format    *string `json:"format"`
}

type FlagsForCommandPoints struct {
	ExtractFlags
	Ground  *bool
	All     *bool
	ZOffset *string `json:"zoffset"`
	Format  *string `json:"format"`
}

type FlagsForCommandCatalog struct {
	Catalog *string `json:"catalog"`
	Input   *string `json:"input"`
	BBox    *string `json:"bbox"`
	Config  *string `json:"config"`
	List    *bool
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "v", false, "Displays the version of terraclipper.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandGrid(args []string) FlagsForCommandGrid {
	flagCommand := flag.NewFlagSet("command-grid", flag.ExitOnError)

	extract := defineExtractFlags(flagCommand, "Specifies the input grid file (.asc/.txt/.tif/.tiff).")
	nodata := defineStringFlagCommand(flagCommand, "nodata", "n", "", "Overrides the nodata value declared by the dataset.")
	maskZero := defineBoolFlagCommand(flagCommand, "mask-zero", "z", false, "Additionally treats exact zero values as missing.")
	vectorize := defineBoolFlagCommand(flagCommand, "vectorize", "e", false, "Flattens the sampled grid into parallel x/y/z arrays.")
	compact := defineBoolFlagCommand(flagCommand, "compact", "p", false, "Drops missing entries from vectorized output. Implies -vectorize.")
	format := defineStringFlagCommand(flagCommand, "format", "f", "", "Output format, 'asc' or 'xyz'. Defaults to asc, or xyz when vectorizing.")

	flagCommand.Parse(args)

	return FlagsForCommandGrid{
		ExtractFlags: extract.collect(),
		Nodata:       nodata,
		MaskZero:     maskZero,
		Vectorize:    vectorize,
		Compact:      compact,
		Format:       format,
	}
}

func ParseFlagsForCommandPoints(args []string) FlagsForCommandPoints {
	flagCommand := flag.NewFlagSet("command-points", flag.ExitOnError)

	extract := defineExtractFlags(flagCommand, "Specifies the input las file/folder.")
	ground := defineBoolFlagCommand(flagCommand, "ground", "g", false, "Keeps ground points (class 2) in addition to canopy points.")
	all := defineBoolFlagCommand(flagCommand, "all", "a", false, "Keeps every classification. Ignored when -ground is set.")
	zOffset := defineStringFlagCommand(flagCommand, "zoffset", "z", "", "Vertical offset to apply to points, in meters. Overrides the config file value, an explicit 0 included.")
	format := defineStringFlagCommand(flagCommand, "format", "f", "las", "Output format, 'las' or 'xyz'.")

	flagCommand.Parse(args)

	return FlagsForCommandPoints{
		ExtractFlags: extract.collect(),
		Ground:       ground,
		All:          all,
		ZOffset:      zOffset,
		Format:       format,
	}
}

func ParseFlagsForCommandCatalog(args []string) FlagsForCommandCatalog {
	flagCommand := flag.NewFlagSet("command-catalog", flag.ExitOnError)

	catalog := defineStringFlagCommand(flagCommand, "catalog", "c", "", "Path of the sqlite catalog database.")
	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Dataset file to register in the catalog.")
	bbox := defineStringFlagCommand(flagCommand, "bbox", "b", "", "World bounding box 'xmin,ymin,xmax,ymax' to query covering datasets for.")
	config := defineStringFlagCommand(flagCommand, "config", "", "", "Optional YAML config file with defaults.")
	list := defineBoolFlagCommand(flagCommand, "list", "l", false, "Lists registered datasets.")

	flagCommand.Parse(args)

	return FlagsForCommandCatalog{
		Catalog: catalog,
		Input:   input,
		BBox:    bbox,
		Config:  config,
		List:    list,
	}
}

// ParseBBox parses a 'xmin,ymin,xmax,ymax' flag value into a bounding box.
// An empty value means no spatial constraint and parses to nil.
func ParseBBox(value string) (*geometry.BoundingBox, error) {
	if value == "" {
		return nil, nil
	}

	fields := strings.Split(value, ",")
	if len(fields) != 4 {
		return nil, fmt.Errorf("bbox must be 'xmin,ymin,xmax,ymax', got %q", value)
	}
	coords := [4]float64{}
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("bbox value %q: %v", field, err)
		}
		coords[i] = v
	}
	return geometry.NewBoundingBox(coords[0], coords[2], coords[1], coords[3]), nil
}

type extractFlagSet struct {
	input            *string
	output           *string
	bbox             *string
	catalog          *string
	config           *string
	folderProcessing *bool
	recursive        *bool
	silent           *bool
	logTimestamp     *bool
	help             *bool
	version          *bool
}

func defineExtractFlags(flagCommand *flag.FlagSet, inputUsage string) *extractFlagSet {
	return &extractFlagSet{
		input:            defineStringFlagCommand(flagCommand, "input", "i", "", inputUsage),
		output:           defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output file/folder."),
		bbox:             defineStringFlagCommand(flagCommand, "bbox", "b", "", "World bounding box 'xmin,ymin,xmax,ymax' to extract. Defaults to the full dataset extent."),
		catalog:          defineStringFlagCommand(flagCommand, "catalog", "c", "", "Optional sqlite catalog database to register processed datasets in."),
		config:           defineStringFlagCommand(flagCommand, "config", "", "", "Optional YAML config file with defaults."),
		folderProcessing: defineBoolFlagCommand(flagCommand, "folder", "d", false, "Enables processing of all matching files from the input folder. Input must be a folder if specified."),
		recursive:        defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for input files inside subfolders."),
		silent:           defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages."),
		logTimestamp:     defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages."),
		help:             defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help."),
		version:          defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of terraclipper."),
	}
}

func (f *extractFlagSet) collect() ExtractFlags {
	return ExtractFlags{
		Input:            f.input,
		Output:           f.output,
		BBox:             f.bbox,
		Catalog:          f.catalog,
		Config:           f.config,
		FolderProcessing: f.folderProcessing,
		Recursive:        f.recursive,
		Silent:           f.silent,
		LogTimestamp:     f.logTimestamp,
		Help:             f.help,
		Version:          f.version,
	}
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
