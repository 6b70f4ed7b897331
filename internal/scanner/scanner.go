// Package scanner finds the archives a run will process. The listing is
// collected in full before extraction starts, so output written during
// the run is never picked up and nested archives are not recursed into.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"unbake/internal/archive"
)

// Result is one completed scan.
type Result struct {
	// Archives lists the supported archive files found, sorted.
	Archives []string
	// Skipped records subtrees the walk could not read.
	Skipped []SkippedPath
}

// SkippedPath pairs an unreadable path with the error that skipped it.
type SkippedPath struct {
	Path string
	Err  error
}

// FindArchives scans root for supported archives. A root that is itself a
// supported archive file is the entire result; an unreadable root is an
// error. Unreadable subtrees are recorded on the result and skipped.
func FindArchives(root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		if !archive.IsSupported(root) {
			return nil, fmt.Errorf("%s is not a supported archive", root)
		}
		return &Result{Archives: []string{root}}, nil
	}

	result := &Result{}
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			result.Skipped = append(result.Skipped, SkippedPath{Path: path, Err: walkErr})
			return nil
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		if archive.IsSupported(path) {
			result.Archives = append(result.Archives, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(result.Archives)
	return result, nil
}
