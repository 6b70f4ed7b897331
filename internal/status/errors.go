// Package status defines the error taxonomy and run metadata shared by the
// extraction pipeline.
//
// Fatal failures are wrapped with one of the sentinel markers below so the
// CLI can classify them; degraded outcomes (fallback encodings, replacement
// characters, skipped entries) are never errors and therefore can never
// change the exit code.
package status

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks unusable configuration or CLI arguments.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks invalid input such as a missing scan path.
	ErrValidation = errors.New("validation error")
	// ErrArchive marks container-level failures: the archive itself is
	// corrupt or unreadable.
	ErrArchive = errors.New("archive error")
	// ErrIO marks filesystem failures while writing extraction output.
	ErrIO = errors.New("io error")
)

// Wrap builds an error that carries component context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps a run error to the process exit code. Completion with
// degraded entries is still success; only fatal errors are non-zero.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
