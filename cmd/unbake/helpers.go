package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"unbake/internal/extract"
)

// normalizeExtensions cleans flag-supplied extension lists the way the
// config loader does: lowercase, no leading dot, empties dropped.
func normalizeExtensions(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "."))
		if ext != "" {
			cleaned = append(cleaned, ext)
		}
	}
	return cleaned
}

// renderArchivePreview prints the scan table shared by `scan` and
// `extract --dry-run`.
func renderArchivePreview(out io.Writer, infos []extract.ArchiveInfo) error {
	if len(infos) == 0 {
		fmt.Fprintln(out, "No archives found")
		return nil
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		if info.Err != nil {
			rows = append(rows, []string{info.Path, "-", "-", "-", "unreadable: " + info.Err.Error()})
			continue
		}
		encoding := info.Encoding
		switch {
		case encoding == "":
			encoding = "-"
		case info.Fallback:
			encoding += " (fallback)"
		}
		rows = append(rows, []string{
			info.Path,
			strconv.Itoa(info.Entries),
			strconv.Itoa(info.Suspect),
			encoding,
			info.DestRoot,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Archive", "Entries", "Suspect", "Encoding", "Destination"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))
	return nil
}
