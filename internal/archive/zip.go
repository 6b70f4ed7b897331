package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
)

// zipReader adapts archive/zip. The stdlib reader keeps the stored name
// bytes untouched in FileHeader.Name and reports via NonUTF8 whether they
// need decoding, which is exactly the raw signal repair wants.
type zipReader struct {
	closer  *zip.ReadCloser
	files   []*zip.File
	index   int
	current io.ReadCloser
}

func openZip(path string) (Reader, error) {
	closer, err := zip.OpenReader(path)
	// ErrInsecurePath still returns a usable reader. The stored names are
	// wanted verbatim: whether an entry is safe to write is judged later,
	// on the decoded path, which the stdlib check cannot see.
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	return &zipReader{closer: closer, files: closer.File, index: -1}, nil
}

func (z *zipReader) Next() (*Entry, error) {
	if z.current != nil {
		z.current.Close()
		z.current = nil
	}
	z.index++
	if z.index >= len(z.files) {
		return nil, io.EOF
	}
	file := z.files[z.index]
	return &Entry{
		RawName:  []byte(file.Name),
		NameUTF8: !file.NonUTF8,
		Dir:      file.FileInfo().IsDir(),
		Size:     int64(file.UncompressedSize64),
	}, nil
}

func (z *zipReader) Read(p []byte) (int, error) {
	if z.index < 0 || z.index >= len(z.files) {
		return 0, io.EOF
	}
	if z.current == nil {
		body, err := z.files[z.index].Open()
		if err != nil {
			return 0, fmt.Errorf("open zip entry: %w", err)
		}
		z.current = body
	}
	return z.current.Read(p)
}

func (z *zipReader) Close() error {
	if z.current != nil {
		z.current.Close()
		z.current = nil
	}
	return z.closer.Close()
}
