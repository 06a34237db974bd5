package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atlas-map/terra_clipper/internal/clipper"
	"github.com/atlas-map/terra_clipper/internal/config"
	"github.com/atlas-map/terra_clipper/pkg"
	"github.com/atlas-map/terra_clipper/tools"
)

const VERSION = "0.9.2"

const logo = `
 _                            _ _
| |_ ___ _ __ _ __ __ _   ___| (_)_ __  _ __   ___ _ __
| __/ _ \ '__| '__/ _  | / __| | | '_ \| '_ \ / _ \ '__|
| ||  __/ |  | | | (_| || (__| | | |_) | |_) |  __/ |
 \__\___|_|  |_|  \__,_| \___|_|_| .__/| .__/ \___|_|
                                 |_|   |_|
        A windowed grid and point cloud extractor written in golang
        Copyright YYYY - Atlas Map
`

func main() {
	log.SetPrefix("[terraclipper] ")
	log.SetFlags(log.LUTC | log.Ldate | log.Lmicroseconds | log.Lshortfile)

	flagsGlobal := tools.ParseFlagsGlobal()
	log.Println(tools.FmtJSONString(flagsGlobal))

	if *flagsGlobal.Help {
		showHelp()
		return
	}
	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		log.Fatal("Please specify a subcommand [grid|points|catalog].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandGrid:
		mainCommandGrid(args)
	case tools.CommandPoints:
		mainCommandPoints(args)
	case tools.CommandCatalog:
		mainCommandCatalog(args)
	default:
		log.Fatalf("Unrecognized command [%q]. Command must be one of [grid|points|catalog]", cmd)
	}
}

func mainCommandGrid(args []string) {
	// Retrieve command line args
	flags := tools.ParseFlagsForCommandGrid(args)

	// Prints the command line flag description
	if *flags.Help {
		showHelp()
		return
	}

	if *flags.Version {
		printVersion()
		return
	}

	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}

	cfg := loadConfig(*flags.Config)

	window, err := tools.ParseBBox(*flags.BBox)
	if err != nil {
		log.Fatal("Error parsing input parameters: ", err)
	}

	nodata := cfg.Grid.Nodata
	if *flags.Nodata != "" {
		value, err := strconv.ParseFloat(*flags.Nodata, 64)
		if err != nil {
			log.Fatal("Error parsing input parameters: nodata must be numeric: ", err)
		}
		nodata = &value
	}

	// Put args inside an Options struct
	opts := clipper.Options{
		Input:            *flags.Input,
		Output:           *flags.Output,
		Window:           window,
		FolderProcessing: *flags.FolderProcessing,
		Recursive:        *flags.Recursive,
		CatalogPath:      firstNonEmpty(*flags.Catalog, cfg.Catalog.Path),
		Command:          clipper.CommandGrid,
		GridOptions: &clipper.GridOptions{
			Nodata:    nodata,
			MaskZero:  *flags.MaskZero || cfg.Grid.MaskZero,
			Vectorize: *flags.Vectorize || cfg.Grid.Vectorize,
			Compact:   *flags.Compact || cfg.Grid.Compact,
			Format:    clipper.ParseOutputFormat(*flags.Format),
		},
	}

	// Validate Options
	if msg, res := validateOptionsForCommandGrid(&opts, &flags); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	// Starts the clipper
	// defer timeTrack(time.Now(), "clipper")
	err = pkg.NewGridClipper(tools.NewStandardFileFinder()).RunClipper(&opts)

	if err != nil {
		log.Fatal("Error while clipping: ", err)
	} else {
		tools.LogOutput("Extraction Completed")
	}
}

// Validates the input options provided to the command line tool checking
// that input and output files exist and that flag combinations make sense
func validateOptionsForCommandGrid(opts *clipper.Options, flags *tools.FlagsForCommandGrid) (string, bool) {
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		return "Input file not found", false
	}
	if opts.Output == "" {
		return "Output file not specified", false
	}

	if *flags.Format != "" && opts.GridOptions.Format == "" {
		return "format should be either ASC or XYZ", false
	}
	if opts.GridOptions.Format == clipper.FormatLAS {
		return "format should be either ASC or XYZ", false
	}
	if opts.GridOptions.Format == clipper.FormatASCIIGrid && (opts.GridOptions.Vectorize || opts.GridOptions.Compact) {
		return "vectorized output cannot be written as an ascii grid, use the XYZ format", false
	}

	return "", true
}

func mainCommandPoints(args []string) {
	flags := tools.ParseFlagsForCommandPoints(args)

	if *flags.Help {
		showHelp()
		return
	}

	if *flags.Version {
		printVersion()
		return
	}

	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}

	cfg := loadConfig(*flags.Config)

	window, err := tools.ParseBBox(*flags.BBox)
	if err != nil {
		log.Fatal("Error parsing input parameters: ", err)
	}

	zOffset, err := overrideFloat(*flags.ZOffset, cfg.Points.ZOffset)
	if err != nil {
		log.Fatal("Error parsing input parameters: zoffset must be numeric: ", err)
	}

	opts := clipper.Options{
		Input:            *flags.Input,
		Output:           *flags.Output,
		Window:           window,
		FolderProcessing: *flags.FolderProcessing,
		Recursive:        *flags.Recursive,
		CatalogPath:      firstNonEmpty(*flags.Catalog, cfg.Catalog.Path),
		Command:          clipper.CommandPoints,
		PointsOptions: &clipper.PointsOptions{
			IncludeGround: *flags.Ground || cfg.Points.IncludeGround,
			IncludeAll:    *flags.All || cfg.Points.IncludeAll,
			ZOffset:       zOffset,
			Format:        clipper.ParseOutputFormat(*flags.Format),
		},
	}

	if msg, res := validateOptionsForCommandPoints(&opts, &flags); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	err = pkg.NewPointsClipper(tools.NewStandardFileFinder()).RunClipper(&opts)

	if err != nil {
		log.Fatal("Error while clipping: ", err)
	} else {
		tools.LogOutput("Extraction Completed")
	}
}

func validateOptionsForCommandPoints(opts *clipper.Options, flags *tools.FlagsForCommandPoints) (string, bool) {
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		return "Input file/folder not found", false
	}
	if opts.Output == "" {
		return "Output file/folder not specified", false
	}

	if *flags.Format != "" && opts.PointsOptions.Format == "" {
		return "format should be either LAS or XYZ", false
	}
	if opts.PointsOptions.Format == clipper.FormatASCIIGrid {
		return "format should be either LAS or XYZ", false
	}

	return "", true
}

func mainCommandCatalog(args []string) {
	flags := tools.ParseFlagsForCommandCatalog(args)

	log.Println("flags", tools.FmtJSONString(flags))

	cfg := loadConfig(*flags.Config)

	window, err := tools.ParseBBox(*flags.BBox)
	if err != nil {
		log.Fatal("Error parsing input parameters: ", err)
	}

	opts := clipper.Options{
		Input:       *flags.Input,
		Window:      window,
		CatalogPath: firstNonEmpty(*flags.Catalog, cfg.Catalog.Path),
		Command:     clipper.CommandCatalog,
		CatalogOptions: &clipper.CatalogOptions{
			List: *flags.List,
		},
	}

	if msg, res := validateOptionsForCommandCatalog(&opts); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	err = pkg.NewCatalogClipper().RunClipper(&opts)

	if err != nil {
		log.Fatal("Error while querying the catalog: ", err)
	}
}

func validateOptionsForCommandCatalog(opts *clipper.Options) (string, bool) {
	if opts.CatalogPath == "" {
		return "Catalog database not specified", false
	}
	if opts.Input != "" {
		if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
			return "Input file not found", false
		}
	}
	if opts.Input == "" && opts.Window == nil && !opts.CatalogOptions.List {
		return "Nothing to do: specify a dataset to register, a bbox to query or -list", false
	}

	return "", true
}

// Loads the YAML defaults file, or the built in defaults when no file is given
func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal("Error loading config file: ", err)
	}
	return cfg
}

// Resolves an optional numeric flag against its config fallback. An empty
// flag value keeps the fallback, anything else must parse as a float, so an
// explicit 0 on the command line still wins over the config file.
func overrideFloat(value string, fallback float64) (float64, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("TerraClipper extracts windowed samples from gridded elevation datasets and filters lidar point clouds by class and extent")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Command line flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
