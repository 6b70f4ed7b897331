package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/nwaples/rardecode/v2"
)

// rarSignature is the marker shared by all rar format versions; v4
// appends 0x00 and v5 appends 0x01 0x00.
var rarSignature = []byte("Rar!\x1a\x07")

// maxSFXWindow bounds how far into a file the signature may sit. Self-
// extracting archives prepend an executable stub, so the marker is not
// always at offset zero.
const maxSFXWindow = 1 << 20

// rarReader adapts nwaples/rardecode. The library decodes the format's
// Unicode name fields itself, so names usually arrive as UTF-8 already;
// NameUTF8 is still derived from the bytes so legacy archives that stored
// names in a local codepage flow into repair like zip names do.
type rarReader struct {
	reader *rardecode.ReadCloser
}

// openRar verifies the container signature before handing the file to
// rardecode: the library's own signature scan does not terminate on
// streams that lack the marker, so corrupt or mislabeled files must be
// refused up front.
func openRar(path string) (Reader, error) {
	if err := checkRarSignature(path); err != nil {
		return nil, err
	}
	reader, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open rar: %w", err)
	}
	return &rarReader{reader: reader}, nil
}

func checkRarSignature(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open rar: %w", err)
	}
	defer file.Close()

	head := make([]byte, maxSFXWindow)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("open rar: %w", err)
	}
	if !bytes.Contains(head[:n], rarSignature) {
		return fmt.Errorf("open rar: %s is not a rar archive", path)
	}
	return nil
}

func (r *rarReader) Next() (*Entry, error) {
	header, err := r.reader.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read rar header: %w", err)
	}
	return &Entry{
		RawName:  []byte(header.Name),
		NameUTF8: utf8.ValidString(header.Name),
		Dir:      header.IsDir,
		Size:     header.UnPackedSize,
	}, nil
}

func (r *rarReader) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

func (r *rarReader) Close() error {
	return r.reader.Close()
}
