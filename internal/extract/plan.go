package extract

import (
	"path"
	"path/filepath"
	"strings"

	"unbake/internal/archive"
	"unbake/internal/fileutil"
	"unbake/internal/repair"
	"unbake/internal/textutil"
)

type entryAction int

const (
	actionWrite entryAction = iota
	actionSkipDir
	actionSkipUnsafe
)

// plannedEntry pairs an archive ordinal with the decision made for it.
// Ordinals matter because rar archives only read sequentially; the write
// pass walks the archive a second time and matches entries by position.
type plannedEntry struct {
	index   int
	relPath string
	action  entryAction
}

type archivePlan struct {
	archivePath string
	// destRoot is the directory entry paths are joined onto.
	destRoot string
	entries  []plannedEntry
	// nameChoice is the encoding decision for the batch filename repair;
	// zero when no entry needed repair.
	nameChoice    repair.Choice
	nameRepairRan bool
	namesRepaired int
	// degraded counts scrubbed names and unsafe-path skips.
	degraded int
	// unsafe counts entries refused because their path escapes the root.
	unsafe   int
	writable int
}

// buildPlan decides, before anything is written, what each entry of an
// archive becomes on disk. destBase is the directory the archive unpacks
// beside; whether entries land directly in it or under a directory named
// after the archive follows from the archive's own structure.
func (e *Extractor) buildPlan(archivePath string, entries []archive.Entry, destBase string) *archivePlan {
	plan := &archivePlan{archivePath: archivePath}

	names := e.repairNames(entries, plan)

	// Classify entries and collect the file paths that survive.
	var files []string
	for i, entry := range entries {
		cleaned, ok := normalizeEntryPath(names[i])
		switch {
		case entry.Dir || strings.HasSuffix(names[i], "/") || strings.HasSuffix(names[i], "\\"):
			plan.entries = append(plan.entries, plannedEntry{index: i, relPath: cleaned, action: actionSkipDir})
		case !ok:
			plan.degraded++
			plan.unsafe++
			plan.entries = append(plan.entries, plannedEntry{index: i, relPath: names[i], action: actionSkipUnsafe})
		default:
			plan.entries = append(plan.entries, plannedEntry{index: i, relPath: cleaned, action: actionWrite})
			files = append(files, cleaned)
			plan.writable++
		}
	}
	if len(files) == 0 {
		return plan
	}

	// An archive whose members share one top-level component unpacks in
	// place; anything else gets a directory named after the archive so
	// loose files do not spray into destBase.
	if singleRoot(files) {
		plan.destRoot = destBase
	} else {
		stem := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
		plan.destRoot = fileutil.UniquePath(filepath.Join(destBase, stem), false)
	}

	if max := e.cfg.Repair.MaxNameBytes; max > 0 {
		for i := range plan.entries {
			if plan.entries[i].action == actionWrite {
				plan.entries[i].relPath = truncateBaseName(plan.entries[i].relPath, max)
			}
		}
	}

	return plan
}

// repairNames returns the UTF-8 name for every entry. Entries the
// container did not mark UTF-8 are decoded in one batch: their raw bytes
// are concatenated and the encoding is chosen once, because individual
// filenames rarely give the detector enough signal.
func (e *Extractor) repairNames(entries []archive.Entry, plan *archivePlan) []string {
	names := make([]string, len(entries))

	var suspect []byte
	if e.cfg.Repair.Filenames {
		for _, entry := range entries {
			if !entry.NameUTF8 {
				suspect = append(suspect, entry.RawName...)
			}
		}
	}
	if len(suspect) > 0 {
		plan.nameChoice = e.repairer.Choose(suspect)
		plan.nameRepairRan = true
		if plan.nameChoice.Fallback {
			plan.degraded++
		}
	}

	for i, entry := range entries {
		raw := string(entry.RawName)
		if e.cfg.Repair.Filenames && !entry.NameUTF8 && plan.nameRepairRan {
			decoded, err := e.repairer.DecodeAs(plan.nameChoice.Encoding, entry.RawName)
			if err != nil {
				decoded = textutil.ScrubUTF8(raw)
			}
			names[i] = decoded
			if decoded != raw {
				plan.namesRepaired++
			}
			continue
		}
		scrubbed := textutil.ScrubUTF8(raw)
		if scrubbed != raw {
			plan.degraded++
		}
		names[i] = scrubbed
	}
	return names
}

// normalizeEntryPath converts an entry name to a clean slash-separated
// relative path. It reports false for paths that would escape the
// extraction root.
func normalizeEntryPath(name string) (string, bool) {
	cleaned := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if cleaned == "." || cleaned == "" {
		return cleaned, false
	}
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return cleaned, false
	}
	return cleaned, true
}

// singleRoot reports whether every path shares one top-level component.
func singleRoot(files []string) bool {
	if len(files) <= 1 {
		return true
	}
	first := topComponent(files[0])
	for _, file := range files[1:] {
		if topComponent(file) != first {
			return false
		}
	}
	return true
}

func topComponent(p string) string {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}

// truncateBaseName shortens the final path component to maxBytes,
// preserving the extension when it fits.
func truncateBaseName(relPath string, maxBytes int) string {
	dir, base := path.Split(relPath)
	if len(base) <= maxBytes {
		return relPath
	}
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if len(ext) < maxBytes {
		base = textutil.TruncateUTF8(stem, maxBytes-len(ext)) + ext
	} else {
		base = textutil.TruncateUTF8(base, maxBytes)
	}
	return dir + base
}
