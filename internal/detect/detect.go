// Package detect wraps statistical charset detection behind a small
// interface so the repair pipeline can swap detectors in tests.
package detect

import (
	"errors"

	"github.com/gogs/chardet"
)

// Guess is one detector opinion about a byte blob.
type Guess struct {
	// Charset is the IANA-style name the detector reports.
	Charset string
	// Language is the detector's language hint, possibly empty.
	Language string
	// Confidence is normalized to [0,1].
	Confidence float64
}

// ErrNotDetected reports that the detector has no usable opinion. Callers
// treat it as an abstain, not a failure.
var ErrNotDetected = errors.New("encoding not detected")

// Detector produces encoding guesses for byte blobs. Implementations must
// be stateless per call and free of side effects.
type Detector interface {
	Detect(blob []byte) (Guess, error)
}

// TextDetector runs chardet's text recognizers.
type TextDetector struct {
	detector *chardet.Detector
}

// New returns a detector backed by chardet.
func New() *TextDetector {
	return &TextDetector{detector: chardet.NewTextDetector()}
}

// Detect returns the best guess for blob. Empty input and chardet's
// not-detected answer both map to ErrNotDetected.
func (d *TextDetector) Detect(blob []byte) (Guess, error) {
	if len(blob) == 0 {
		return Guess{}, ErrNotDetected
	}
	result, err := d.detector.DetectBest(blob)
	if err != nil {
		if errors.Is(err, chardet.NotDetectedError) {
			return Guess{}, ErrNotDetected
		}
		return Guess{}, err
	}
	return fromResult(*result), nil
}

// DetectAll returns every candidate the recognizers scored, best first.
func (d *TextDetector) DetectAll(blob []byte) ([]Guess, error) {
	if len(blob) == 0 {
		return nil, ErrNotDetected
	}
	results, err := d.detector.DetectAll(blob)
	if err != nil {
		if errors.Is(err, chardet.NotDetectedError) {
			return nil, ErrNotDetected
		}
		return nil, err
	}
	guesses := make([]Guess, 0, len(results))
	for _, result := range results {
		guesses = append(guesses, fromResult(result))
	}
	return guesses, nil
}

func fromResult(result chardet.Result) Guess {
	confidence := float64(result.Confidence) / 100
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Guess{
		Charset:    result.Charset,
		Language:   result.Language,
		Confidence: confidence,
	}
}
