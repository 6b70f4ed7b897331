package repair

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"unbake/internal/charset"
	"unbake/internal/config"
	"unbake/internal/detect"
)

const defaultSampleBytes = 2048

// Options configure a Repairer.
type Options struct {
	// Detector produces encoding guesses. Nil means the chardet-backed
	// default.
	Detector detect.Detector
	// Fallback is the encoding assumed whenever detection is not trusted.
	Fallback string
	// Threshold is the minimum detector confidence, in [0,1], required to
	// trust a guess over the fallback.
	Threshold float64
	// SampleBytes bounds how much of a stream feeds detection.
	SampleBytes int
}

// Choice records which encoding was selected for a blob and why.
type Choice struct {
	// Encoding is the canonical label of the selected encoding.
	Encoding string
	// Language is the detector's language hint behind a trusted guess;
	// empty on fallback, where no guess backs the encoding.
	Language string
	// Confidence is the detector confidence behind the selection; zero
	// when the detector abstained.
	Confidence float64
	// Fallback reports that the configured fallback was applied.
	Fallback bool
}

// Result is a completed repair of one blob.
type Result struct {
	// Text is the decoded content. Always valid UTF-8; bytes that could
	// not be interpreted appear as U+FFFD.
	Text       string
	Encoding   string
	Confidence float64
	Fallback   bool
}

// Repairer converts byte blobs of unknown encoding to UTF-8. It holds no
// per-call state and is safe to reuse across archives.
type Repairer struct {
	detector    detect.Detector
	fallback    string
	threshold   float64
	sampleBytes int
}

// New builds a Repairer, validating that the fallback label resolves.
func New(opts Options) (*Repairer, error) {
	fallback, err := charset.Canonical(opts.Fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback encoding: %w", err)
	}
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, errors.New("confidence threshold must be between 0 and 1")
	}
	detector := opts.Detector
	if detector == nil {
		detector = detect.New()
	}
	sampleBytes := opts.SampleBytes
	if sampleBytes <= 0 {
		sampleBytes = defaultSampleBytes
	}
	return &Repairer{
		detector:    detector,
		fallback:    fallback,
		threshold:   opts.Threshold,
		sampleBytes: sampleBytes,
	}, nil
}

// FromConfig builds a Repairer from the [detection] settings.
func FromConfig(cfg *config.Config) (*Repairer, error) {
	return New(Options{
		Fallback:    cfg.Detection.FallbackEncoding,
		Threshold:   cfg.Detection.ConfidenceThreshold,
		SampleBytes: cfg.Detection.SampleBytes,
	})
}

// Fallback returns the canonical fallback label.
func (r *Repairer) Fallback() string {
	return r.fallback
}

// Choose selects the encoding for blob: the detector's guess when it is
// confident enough and x/text can decode it, the fallback otherwise.
// Choosing never fails.
func (r *Repairer) Choose(blob []byte) Choice {
	guess, err := r.detector.Detect(blob)
	if err != nil {
		return Choice{Encoding: r.fallback, Fallback: true}
	}
	if guess.Confidence < r.threshold {
		return Choice{Encoding: r.fallback, Confidence: guess.Confidence, Fallback: true}
	}
	canonical, err := charset.Canonical(guess.Charset)
	if err != nil {
		// The detector recognizes encodings x/text cannot decode.
		return Choice{Encoding: r.fallback, Confidence: guess.Confidence, Fallback: true}
	}
	return Choice{Encoding: canonical, Language: guess.Language, Confidence: guess.Confidence}
}

// Repair chooses an encoding for blob and decodes it. The result text is
// always valid UTF-8; an empty blob yields empty text.
func (r *Repairer) Repair(blob []byte) Result {
	choice := r.Choose(blob)
	return Result{
		Text:       r.decode(choice.Encoding, blob),
		Encoding:   choice.Encoding,
		Confidence: choice.Confidence,
		Fallback:   choice.Fallback,
	}
}

// DecodeAs decodes blob with a known encoding label. It is used for batch
// filename repair, where one detection covers many names.
func (r *Repairer) DecodeAs(label string, blob []byte) (string, error) {
	enc, err := charset.Resolve(label)
	if err != nil {
		return "", err
	}
	return decodeBlob(enc, blob), nil
}

func (r *Repairer) decode(label string, blob []byte) string {
	enc, err := charset.Resolve(label)
	if err != nil {
		// Unreachable for labels produced by Choose; scrub rather than
		// propagate garbage.
		return strings.ToValidUTF8(string(blob), "�")
	}
	return decodeBlob(enc, blob)
}

func decodeBlob(enc encoding.Encoding, blob []byte) string {
	decoded, _, err := transform.Bytes(decodeTransformer(enc), blob)
	if err != nil {
		return strings.ToValidUTF8(string(blob), "�")
	}
	return string(decoded)
}

// decodeTransformer yields UTF-8 no matter what the source bytes hold.
// Decoders substitute U+FFFD for undecodable input; ReplaceIllFormed
// backstops any decoder that passes bytes through unchanged.
func decodeTransformer(enc encoding.Encoding) transform.Transformer {
	return transform.Chain(enc.NewDecoder(), runes.ReplaceIllFormed())
}
