// Package catalog keeps a small sqlite registry of datasets seen by the
// tool: path, format kind, world extent and cell size. Pipelines use it to
// find which dataset covers a requested window without reopening every file.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/atlas-map/terra_clipper/internal/geometry"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	kind TEXT NOT NULL,
	x_min REAL NOT NULL,
	x_max REAL NOT NULL,
	y_min REAL NOT NULL,
	y_max REAL NOT NULL,
	z_min REAL NOT NULL,
	z_max REAL NOT NULL,
	cell_size REAL NOT NULL,
	registered_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_datasets_extent ON datasets (x_min, x_max, y_min, y_max);
`

type Entry struct {
	ID   string
	Path string
	Kind string
	XMin float64
	XMax float64
	YMin float64
	YMax float64

	// vertical extent, zero for planar grid datasets
	ZMin float64
	ZMax float64

	CellSize float64

	RegisteredAt time.Time
}

type Catalog struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the catalog database at the given
// path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Register stores a dataset entry, assigning it a fresh id when none is set.
func (c *Catalog) Register(entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.RegisteredAt.IsZero() {
		entry.RegisteredAt = time.Now().UTC()
	}

	_, err := c.db.Exec(
		`INSERT INTO datasets (id, path, kind, x_min, x_max, y_min, y_max, z_min, z_max, cell_size, registered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Path, entry.Kind,
		entry.XMin, entry.XMax, entry.YMin, entry.YMax,
		entry.ZMin, entry.ZMax,
		entry.CellSize, entry.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to register dataset %s: %w", entry.Path, err)
	}
	return nil
}

// List returns every registered dataset, newest first.
func (c *Catalog) List() ([]*Entry, error) {
	rows, err := c.db.Query(
		`SELECT id, path, kind, x_min, x_max, y_min, y_max, z_min, z_max, cell_size, registered_at
		 FROM datasets ORDER BY registered_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// FindCovering returns the datasets whose extent overlaps the given box.
func (c *Catalog) FindCovering(bbox *geometry.BoundingBox) ([]*Entry, error) {
	rows, err := c.db.Query(
		`SELECT id, path, kind, x_min, x_max, y_min, y_max, z_min, z_max, cell_size, registered_at
		 FROM datasets
		 WHERE x_min <= ? AND x_max >= ? AND y_min <= ? AND y_max >= ?
		 ORDER BY registered_at DESC`,
		bbox.Xmax, bbox.Xmin, bbox.Ymax, bbox.Ymin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		if err := rows.Scan(
			&entry.ID, &entry.Path, &entry.Kind,
			&entry.XMin, &entry.XMax, &entry.YMin, &entry.YMax,
			&entry.ZMin, &entry.ZMax,
			&entry.CellSize, &entry.RegisteredAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
