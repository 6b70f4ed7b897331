package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// UniquePath returns path if nothing exists there, otherwise the first
// "name_2", "name_3", ... variant that is free. For files the counter is
// inserted before the extension.
func UniquePath(path string, isFile bool) string {
	if !exists(path) {
		return path
	}
	base := path
	ext := ""
	if isFile {
		ext = filepath.Ext(path)
		base = strings.TrimSuffix(path, ext)
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if !exists(candidate) {
			return candidate
		}
	}
}

// EnsureParentDir creates the directory containing path.
func EnsureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func exists(path string) bool {
	// Lstat so dangling symlinks still count as occupied.
	_, err := os.Lstat(path)
	return err == nil
}
