package repair

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/text/transform"

	"unbake/internal/charset"
)

// NewReader chooses an encoding from the head of src and returns a reader
// yielding the decoded UTF-8 stream. Detection reads at most the
// configured sample size; the head is replayed, so the returned reader
// covers src from its first byte. Multi-byte sequences that straddle
// internal read boundaries decode correctly because the transform layer
// carries partial sequences between reads.
func (r *Repairer) NewReader(src io.Reader) (io.Reader, Choice, error) {
	head := make([]byte, r.sampleBytes)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, Choice{}, err
	}
	head = head[:n]

	choice := r.Choose(head)
	enc, err := charset.Resolve(choice.Encoding)
	if err != nil {
		// Unreachable for labels produced by Choose.
		return nil, Choice{}, err
	}

	combined := io.MultiReader(bytes.NewReader(head), src)
	return transform.NewReader(combined, decodeTransformer(enc)), choice, nil
}
