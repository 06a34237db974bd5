package pkg

import (
	"errors"
	"fmt"

	"github.com/atlas-map/terra_clipper/internal/catalog"
	"github.com/atlas-map/terra_clipper/internal/clipper"
	"github.com/atlas-map/terra_clipper/internal/geometry"
	"github.com/atlas-map/terra_clipper/internal/grid"
	lidario "github.com/atlas-map/terra_clipper/third_party/lasread"
	"github.com/golang/glog"
)

// CatalogClipper registers datasets in the sqlite catalog and answers
// coverage queries against it.
type CatalogClipper struct{}

func NewCatalogClipper() IClipper {
	return &CatalogClipper{}
}

func (c *CatalogClipper) RunClipper(opts *clipper.Options) error {
	if opts.CatalogPath == "" {
		return errors.New("catalog command requires a catalog database path")
	}

	cat, err := catalog.Open(opts.CatalogPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	if opts.Input != "" {
		if err := c.registerInput(cat, opts.Input); err != nil {
			return err
		}
	}

	if opts.Window != nil {
		entries, err := cat.FindCovering(opts.Window)
		if err != nil {
			return err
		}
		glog.Infof("%d dataset(s) cover the requested box", len(entries))
		printEntries(entries)
		return nil
	}

	if opts.CatalogOptions != nil && opts.CatalogOptions.List {
		entries, err := cat.List()
		if err != nil {
			return err
		}
		glog.Infof("%d dataset(s) registered", len(entries))
		printEntries(entries)
	}
	return nil
}

func (c *CatalogClipper) registerInput(cat *catalog.Catalog, path string) error {
	kind, err := DetectSourceKind(path)
	if err != nil {
		return err
	}

	var entry *catalog.Entry
	switch kind {
	case SourcePointCloud:
		lasFile, err := lidario.NewLasFile(path, "r")
		if err != nil {
			return err
		}
		defer func() { _ = lasFile.Close() }()
		entry = pointCloudEntry(path, &lasFile.Header)
	default:
		source, err := OpenGridSource(path)
		if err != nil {
			return err
		}
		entry = gridEntry(path, source.Transform(), kind)
	}

	if err := cat.Register(entry); err != nil {
		return err
	}
	glog.Infof("registered dataset [%s] as [%s]", path, entry.ID)
	return nil
}

func printEntries(entries []*catalog.Entry) {
	for _, entry := range entries {
		fmt.Printf("%s  %-10s  x[%f, %f] y[%f, %f]  %s\n",
			entry.ID, entry.Kind, entry.XMin, entry.XMax, entry.YMin, entry.YMax, entry.Path)
	}
}

func gridEntry(path string, transform *grid.GeoTransform, kind SourceKind) *catalog.Entry {
	llx, lly := transform.LowerLeft()
	urx, ury := transform.UpperRight()
	extent := geometry.NewBoundingBox(llx, urx, lly, ury)
	return &catalog.Entry{
		Path:     path,
		Kind:     kind.String(),
		XMin:     extent.Xmin,
		XMax:     extent.Xmax,
		YMin:     extent.Ymin,
		YMax:     extent.Ymax,
		CellSize: transform.CellSize,
	}
}

func pointCloudEntry(path string, header *lidario.LasHeader) *catalog.Entry {
	extent := geometry.NewBoundingBox3D(
		header.MinX, header.MaxX,
		header.MinY, header.MaxY,
		header.MinZ, header.MaxZ,
	)
	return &catalog.Entry{
		Path: path,
		Kind: SourcePointCloud.String(),
		XMin: extent.Xmin,
		XMax: extent.Xmax,
		YMin: extent.Ymin,
		YMax: extent.Ymax,
		ZMin: extent.Zmin,
		ZMax: extent.Zmax,
	}
}

func registerGrid(catalogPath, path string, transform *grid.GeoTransform) error {
	kind, err := DetectSourceKind(path)
	if err != nil {
		return err
	}

	cat, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	return cat.Register(gridEntry(path, transform, kind))
}

func registerPointCloud(catalogPath, path string, header *lidario.LasHeader) error {
	cat, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	return cat.Register(pointCloudEntry(path, header))
}
