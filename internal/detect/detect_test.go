package detect_test

import (
	"errors"
	"strings"
	"testing"

	"unbake/internal/detect"
)

const japaneseUTF8 = "日本語のテキストです。文字コードの判定に使います。アーカイブの中身を復元します。"

// japaneseUTF8 encoded as Shift-JIS.
var japaneseShiftJIS = []byte(
	"\x93\xfa\x96\x7b\x8c\xea\x82\xcc\x83\x65\x83\x4c\x83\x58\x83\x67" +
		"\x82\xc5\x82\xb7\x81\x42\x95\xb6\x8e\x9a\x83\x52\x81\x5b\x83\x68" +
		"\x82\xcc\x94\xbb\x92\xe8\x82\xc9\x8e\x67\x82\xa2\x82\xdc\x82\xb7" +
		"\x81\x42\x83\x41\x81\x5b\x83\x4a\x83\x43\x83\x75\x82\xcc\x92\x86" +
		"\x90\x67\x82\xf0\x95\x9c\x8c\xb3\x82\xb5\x82\xdc\x82\xb7\x81\x42")

func TestDetectRecognizesUTF8(t *testing.T) {
	detector := detect.New()
	guess, err := detector.Detect([]byte(strings.Repeat(japaneseUTF8, 4)))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if guess.Charset != "UTF-8" {
		t.Fatalf("unexpected charset: %q", guess.Charset)
	}
	if guess.Confidence <= 0 || guess.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", guess.Confidence)
	}
}

func TestDetectRecognizesShiftJIS(t *testing.T) {
	detector := detect.New()
	blob := []byte(strings.Repeat(string(japaneseShiftJIS), 4))
	guess, err := detector.Detect(blob)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if guess.Charset != "Shift_JIS" {
		t.Fatalf("unexpected charset: %q", guess.Charset)
	}
	if guess.Confidence <= 0 {
		t.Fatalf("expected positive confidence, got %v", guess.Confidence)
	}
}

func TestDetectAbstainsOnEmptyInput(t *testing.T) {
	detector := detect.New()
	if _, err := detector.Detect(nil); !errors.Is(err, detect.ErrNotDetected) {
		t.Fatalf("expected ErrNotDetected, got %v", err)
	}
	if _, err := detector.DetectAll(nil); !errors.Is(err, detect.ErrNotDetected) {
		t.Fatalf("expected ErrNotDetected from DetectAll, got %v", err)
	}
}

func TestDetectAllRanksBestFirst(t *testing.T) {
	detector := detect.New()
	blob := []byte(strings.Repeat(japaneseUTF8, 4))
	guesses, err := detector.DetectAll(blob)
	if err != nil {
		t.Fatalf("DetectAll returned error: %v", err)
	}
	if len(guesses) == 0 {
		t.Fatal("expected at least one candidate")
	}
	best, err := detector.Detect(blob)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if guesses[0].Charset != best.Charset {
		t.Fatalf("expected DetectAll to lead with %q, got %q", best.Charset, guesses[0].Charset)
	}
	for _, guess := range guesses {
		if guess.Confidence < 0 || guess.Confidence > 1 {
			t.Fatalf("confidence out of range for %q: %v", guess.Charset, guess.Confidence)
		}
	}
}
