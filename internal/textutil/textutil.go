// Package textutil provides the small text transforms applied to repaired
// names and contents: byte-limited truncation that respects rune
// boundaries, and scrubbing of ill-formed UTF-8.
package textutil

import (
	"strings"
	"unicode/utf8"
)

// TruncateUTF8 shortens s to at most maxBytes bytes without splitting a
// rune. A non-positive limit means no truncation.
func TruncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ScrubUTF8 replaces ill-formed UTF-8 in s with U+FFFD.
func ScrubUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}
