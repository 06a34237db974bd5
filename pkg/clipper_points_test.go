package pkg

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atlas-map/terra_clipper/internal/clipper"
	"github.com/atlas-map/terra_clipper/internal/geometry"
	lidario "github.com/atlas-map/terra_clipper/third_party/lasread"
	"github.com/atlas-map/terra_clipper/tools"
)

// writeTestLas builds a LAS 1.2 format 0 file holding four points:
// ground (class 2) at (10, 10), low vegetation (3) at (20, 20),
// high vegetation (5) at (30, 30) and a building (6) at (200, 200)
func writeTestLas(t *testing.T, path string) {
	t.Helper()
	le := binary.LittleEndian

	type pt struct {
		x, y, z float64
		class   byte
	}
	points := []pt{
		{10, 10, 1, 2},
		{20, 20, 2, 3},
		{30, 30, 3, 5},
		{200, 200, 4, 6},
	}

	const headerSize = 227
	const recordLength = 20
	raw := make([]byte, headerSize+len(points)*recordLength)

	copy(raw[0:4], "LASF")
	raw[24] = 1
	raw[25] = 2
	le.PutUint16(raw[94:96], headerSize)
	le.PutUint32(raw[96:100], headerSize)
	le.PutUint16(raw[105:107], recordLength)
	le.PutUint32(raw[107:111], uint32(len(points)))

	scale := 0.01
	for _, at := range []int{131, 139, 147} {
		le.PutUint64(raw[at:at+8], math.Float64bits(scale))
	}
	for i, p := range points {
		record := raw[headerSize+i*recordLength:]
		le.PutUint32(record[0:4], uint32(int32(math.Round(p.x/scale))))
		le.PutUint32(record[4:8], uint32(int32(math.Round(p.y/scale))))
		le.PutUint32(record[8:12], uint32(int32(math.Round(p.z/scale))))
		record[15] = p.class
	}
	le.PutUint64(raw[179:187], math.Float64bits(200))
	le.PutUint64(raw[187:195], math.Float64bits(10))
	le.PutUint64(raw[195:203], math.Float64bits(200))
	le.PutUint64(raw[203:211], math.Float64bits(10))
	le.PutUint64(raw[211:219], math.Float64bits(4))
	le.PutUint64(raw[219:227], math.Float64bits(1))

	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}
}

// TestPointsClipperLasOutput filters by class and box and checks the subset
// written back as LAS
func TestPointsClipperLasOutput(t *testing.T) {
	dir, err := os.MkdirTemp("", "points")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "cloud.las")
	output := filepath.Join(dir, "clip.las")
	writeTestLas(t, input)

	opts := &clipper.Options{
		Input:   input,
		Output:  output,
		Window:  geometry.NewBoundingBox(0, 100, 0, 100),
		Command: clipper.CommandPoints,
		PointsOptions: &clipper.PointsOptions{
			IncludeGround: true,
			Format:        clipper.FormatLAS,
		},
	}
	if err := NewPointsClipper(tools.NewStandardFileFinder()).RunClipper(opts); err != nil {
		t.Fatal(err)
	}

	subset, err := lidario.NewLasFile(output, "r")
	if err != nil {
		t.Fatal(err)
	}
	defer subset.Close()

	// the building class and the point outside the box are gone
	if subset.Header.NumberPoints != 3 {
		t.Fatalf("expected 3 surviving points, got %d", subset.Header.NumberPoints)
	}
	point, err := subset.LasPoint(0)
	if err != nil {
		t.Fatal(err)
	}
	if point.Classification != 2 {
		t.Errorf("expected the ground point first, got class %d", point.Classification)
	}
}

func TestPointsClipperXYZOutputWithZOffset(t *testing.T) {
	dir, err := os.MkdirTemp("", "points")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "cloud.las")
	output := filepath.Join(dir, "clip.xyz")
	writeTestLas(t, input)

	opts := &clipper.Options{
		Input:   input,
		Output:  output,
		Command: clipper.CommandPoints,
		PointsOptions: &clipper.PointsOptions{
			IncludeAll: true,
			ZOffset:    100,
			Format:     clipper.FormatXYZ,
		},
	}
	if err := NewPointsClipper(tools.NewStandardFileFinder()).RunClipper(opts); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected all 4 points kept, got %d lines", len(lines))
	}
	if fields := strings.Fields(lines[0]); fields[2] != "101.000000" {
		t.Errorf("expected z offset applied, first z %q", fields[2])
	}
}

func TestPointsClipperFolderProcessing(t *testing.T) {
	dir, err := os.MkdirTemp("", "points")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	inputDir := filepath.Join(dir, "in")
	outputDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(inputDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeTestLas(t, filepath.Join(inputDir, "tile_a.las"))
	writeTestLas(t, filepath.Join(inputDir, "tile_b.las"))

	opts := &clipper.Options{
		Input:            inputDir,
		Output:           outputDir,
		FolderProcessing: true,
		Command:          clipper.CommandPoints,
		PointsOptions: &clipper.PointsOptions{
			IncludeAll: true,
			Format:     clipper.FormatLAS,
		},
	}
	if err := NewPointsClipper(tools.NewStandardFileFinder()).RunClipper(opts); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"tile_a_clip.las", "tile_b_clip.las"} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("expected output %s: %v", name, err)
		}
	}
}
