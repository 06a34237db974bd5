package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/atlas-map/terra_clipper/internal/clipper"
)

func buildTestTree(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "filefinder")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	files := []string{"a.las", "b.LAS", "c.txt", filepath.Join("nested", "d.las")}
	for _, name := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestGetFilesToProcessSingleFile(t *testing.T) {
	finder := NewStandardFileFinder()
	opts := &clipper.Options{Input: "/data/tile.las"}

	files := finder.GetFilesToProcess(opts, []string{".las"})
	if len(files) != 1 || files[0] != "/data/tile.las" {
		t.Errorf("expected the input file passed through, got %v", files)
	}
}

func TestGetFilesToProcessFolder(t *testing.T) {
	dir := buildTestTree(t)
	finder := NewStandardFileFinder()

	opts := &clipper.Options{Input: dir, FolderProcessing: true}
	files := finder.GetFilesToProcess(opts, []string{".las"})
	// extension match is case insensitive, nested folders are skipped
	if len(files) != 2 {
		t.Fatalf("expected 2 las files in the top folder, got %d: %v", len(files), files)
	}

	opts.Recursive = true
	files = finder.GetFilesToProcess(opts, []string{".las"})
	if len(files) != 3 {
		t.Errorf("expected 3 las files with recursion, got %d: %v", len(files), files)
	}
}
