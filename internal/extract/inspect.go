package extract

import (
	"context"

	"unbake/internal/config"
	"unbake/internal/logging"
	"unbake/internal/scanner"
	"unbake/internal/status"
)

// ArchiveInfo describes what extracting one archive would do, without
// writing anything.
type ArchiveInfo struct {
	Path string
	// Entries counts file members; directories are excluded.
	Entries int
	// Suspect counts members whose stored name is not valid UTF-8.
	Suspect int
	// Encoding is the codepage the filename repair would decode with.
	// Empty when no repair would run.
	Encoding string
	Fallback bool
	DestRoot string
	// Err is set when the archive could not be read; the listing
	// continues past it.
	Err error
}

// Inspect previews a run: it scans source and plans every archive found,
// touching nothing on disk.
func (e *Extractor) Inspect(ctx context.Context, source string) ([]ArchiveInfo, error) {
	source, err := config.ExpandPath(source)
	if err != nil {
		return nil, status.Wrap(status.ErrValidation, "extract", "resolve", "source path", err)
	}
	logger := logging.WithContext(ctx, e.logger)

	scan, err := scanner.FindArchives(source)
	if err != nil {
		return nil, status.Wrap(status.ErrValidation, "scan", "find archives", source, err)
	}
	for _, skipped := range scan.Skipped {
		logger.Warn("subtree skipped", logging.String("path", skipped.Path), logging.Error(skipped.Err))
	}

	infos := make([]ArchiveInfo, 0, len(scan.Archives))
	for _, archivePath := range scan.Archives {
		if err := ctx.Err(); err != nil {
			return infos, err
		}
		info := ArchiveInfo{Path: archivePath}

		entries, err := readHeaders(archivePath)
		if err != nil {
			info.Err = err
			infos = append(infos, info)
			continue
		}
		for _, entry := range entries {
			if !entry.Dir {
				info.Entries++
			}
			if !entry.NameUTF8 {
				info.Suspect++
			}
		}

		destBase, err := e.destBase(source, archivePath)
		if err != nil {
			info.Err = err
			infos = append(infos, info)
			continue
		}
		plan := e.buildPlan(archivePath, entries, destBase)
		info.DestRoot = plan.destRoot
		if plan.nameRepairRan {
			info.Encoding = plan.nameChoice.Encoding
			info.Fallback = plan.nameChoice.Fallback
		}
		infos = append(infos, info)
	}
	return infos, nil
}
