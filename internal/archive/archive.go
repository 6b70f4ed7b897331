// Package archive reads zip and rar containers behind one iterator shaped
// like archive/tar: Next advances to an entry, Read drains its body.
//
// Entry names are surfaced as raw bytes together with the container's
// UTF-8 signal, because repairing mis-encoded names is the caller's whole
// purpose. Nothing here interprets or rewrites names.
package archive

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Entry describes one member of an archive.
type Entry struct {
	// RawName holds the stored name bytes exactly as the container
	// recorded them. The separator may be "/" or "\"; interpretation is
	// the caller's job.
	RawName []byte
	// NameUTF8 reports whether RawName is known to be UTF-8, either
	// because the container declared it or because the bytes validate.
	NameUTF8 bool
	// Dir marks an explicit directory entry.
	Dir bool
	// Size is the uncompressed size when the container records one.
	Size int64
}

// Name returns the raw name as a string, without any repair.
func (e *Entry) Name() string {
	return string(e.RawName)
}

// Reader iterates an archive. Next returns io.EOF after the last entry;
// Read consumes the current entry's body.
type Reader interface {
	Next() (*Entry, error)
	Read(p []byte) (int, error)
	Close() error
}

// IsSupported reports whether path names a container this package opens.
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".rar":
		return true
	}
	return false
}

// Open opens the archive at path with the adapter for its extension.
func Open(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return openZip(path)
	case ".rar":
		return openRar(path)
	default:
		return nil, fmt.Errorf("unsupported archive type %q", filepath.Ext(path))
	}
}
