package tools

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/atlas-map/terra_clipper/internal/clipper"
)

type FileFinder interface {
	GetFilesToProcess(opts *clipper.Options, extensions []string) []string
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

func (f *StandardFileFinder) GetFilesToProcess(opts *clipper.Options, extensions []string) []string {
	// If folder processing is not enabled then the input file is given by the -input flag,
	// otherwise look for matching files in the -input folder, eventually excluding nested
	// folders if the Recursive flag is disabled
	if !opts.FolderProcessing {
		return []string{opts.Input}
	}

	return f.getFilesFromInputFolder(opts, extensions)
}

func (f *StandardFileFinder) getFilesFromInputFolder(opts *clipper.Options, extensions []string) []string {
	var files = make([]string, 0)

	baseInfo, _ := os.Stat(opts.Input)
	err := filepath.Walk(
		opts.Input,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !opts.Recursive && !os.SameFile(info, baseInfo) {
				return filepath.SkipDir
			}
			if hasAnyExtension(info.Name(), extensions) {
				files = append(files, path)
			}
			return nil
		},
	)

	if err != nil {
		log.Fatal(err)
	}

	return files
}

func hasAnyExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
