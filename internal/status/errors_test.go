package status_test

import (
	"errors"
	"strings"
	"testing"

	"unbake/internal/status"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := status.Wrap(status.ErrArchive, "extract", "open", "container unreadable", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, status.ErrArchive) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"extract", "open", "container unreadable"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToIO(t *testing.T) {
	err := status.Wrap(nil, "extract", "write", "short write", nil)
	if !errors.Is(err, status.ErrIO) {
		t.Fatalf("expected io marker, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	if code := status.ExitCode(nil); code != 0 {
		t.Fatalf("expected 0 for nil error, got %d", code)
	}
	err := status.Wrap(status.ErrValidation, "cli", "args", "missing path", nil)
	if code := status.ExitCode(err); code == 0 {
		t.Fatal("expected non-zero exit code for fatal error")
	}
}
