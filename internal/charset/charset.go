// Package charset resolves encoding labels to golang.org/x/text decoders.
//
// Labels arrive from three places with three naming habits: the statistical
// detector (IANA-style names such as Shift_JIS or GB-18030), configuration
// files (whatever the user typed), and CLI flags. A small alias table maps
// the common spellings to canonical names, then htmlindex and ianaindex
// cover everything else x/text implements. Unknown labels are errors;
// callers decide whether that is fatal (config) or a reason to fall back
// (a detector guess).
package charset

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// aliases maps normalized labels to the canonical names used in logs and
// results. The table doubles as the listing behind `unbake encodings`.
var aliases = map[string]string{
	"shift_jis":   "shift_jis",
	"shift-jis":   "shift_jis",
	"shiftjis":    "shift_jis",
	"sjis":        "shift_jis",
	"cp932":       "shift_jis",
	"ms932":       "shift_jis",
	"windows-31j": "shift_jis",
	"ms-kanji":    "shift_jis",

	"euc-jp": "euc-jp",
	"eucjp":  "euc-jp",
	"ujis":   "euc-jp",

	"iso-2022-jp": "iso-2022-jp",
	"iso2022jp":   "iso-2022-jp",
	"jis":         "iso-2022-jp",

	"utf-8":    "utf-8",
	"utf8":     "utf-8",
	"ascii":    "utf-8",
	"us-ascii": "utf-8",

	"utf-16":   "utf-16le",
	"utf-16le": "utf-16le",
	"utf-16be": "utf-16be",

	"gbk":     "gbk",
	"gb2312":  "gbk",
	"cp936":   "gbk",
	"chinese": "gbk",

	"gb18030":  "gb18030",
	"gb-18030": "gb18030",

	"big5":  "big5",
	"cp950": "big5",

	"euc-kr":      "euc-kr",
	"euckr":       "euc-kr",
	"cp949":       "euc-kr",
	"uhc":         "euc-kr",
	"windows-949": "euc-kr",
	"korean":      "euc-kr",

	"windows-1252": "windows-1252",
	"cp1252":       "windows-1252",
	"latin1":       "windows-1252",
	"latin-1":      "windows-1252",
	"iso-8859-1":   "windows-1252",

	"windows-1251": "windows-1251",
	"cp1251":       "windows-1251",

	"windows-1256": "windows-1256",
	"cp1256":       "windows-1256",

	"koi8-r": "koi8-r",
	"koi8r":  "koi8-r",

	"ibm866": "ibm866",
	"cp866":  "ibm866",

	"iso-8859-2": "iso-8859-2",
	"latin2":     "iso-8859-2",
	"latin-2":    "iso-8859-2",
	"iso-8859-5": "iso-8859-5",
	"iso-8859-6": "iso-8859-6",
	"iso-8859-7": "iso-8859-7",
	"iso-8859-8": "iso-8859-8",
	"iso-8859-9": "windows-1254",

	"ibm437": "ibm437",
	"cp437":  "ibm437",
	"ibm850": "ibm850",
	"cp850":  "ibm850",
}

// Resolve returns the decoder-capable encoding for a label.
func Resolve(label string) (encoding.Encoding, error) {
	normalized := normalizeLabel(label)
	if normalized == "" {
		return nil, errors.New("empty encoding label")
	}
	if canonical, ok := aliases[normalized]; ok {
		normalized = canonical
	}
	if enc, err := htmlindex.Get(normalized); err == nil {
		// The web platform maps iso-2022-cn/kr style labels to the
		// replacement encoding, which destroys the whole stream. Falling
		// back is strictly better, so treat those labels as unsupported.
		if enc == encoding.Replacement {
			return nil, fmt.Errorf("unsupported encoding label %q", label)
		}
		return enc, nil
	}
	// ianaindex returns a nil encoding without error for registry names
	// x/text has no implementation for.
	if enc, err := ianaindex.IANA.Encoding(normalized); err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("unsupported encoding label %q", label)
}

// Canonical returns the canonical name for a label, as used in logs and
// run summaries.
func Canonical(label string) (string, error) {
	normalized := normalizeLabel(label)
	if normalized == "" {
		return "", errors.New("empty encoding label")
	}
	if canonical, ok := aliases[normalized]; ok {
		return canonical, nil
	}
	if enc, err := htmlindex.Get(normalized); err == nil && enc != encoding.Replacement {
		if name, err := htmlindex.Name(enc); err == nil {
			return name, nil
		}
	}
	if enc, err := ianaindex.IANA.Encoding(normalized); err == nil && enc != nil {
		if name, err := ianaindex.IANA.Name(enc); err == nil {
			return strings.ToLower(name), nil
		}
	}
	return "", fmt.Errorf("unsupported encoding label %q", label)
}

// Names returns every label in the alias table, sorted.
func Names() []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeLabel(label string) string {
	cleaned := strings.ToLower(strings.TrimSpace(label))
	return strings.ReplaceAll(cleaned, " ", "-")
}
