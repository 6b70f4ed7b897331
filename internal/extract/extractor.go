package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"unbake/internal/archive"
	"unbake/internal/config"
	"unbake/internal/fileutil"
	"unbake/internal/language"
	"unbake/internal/logging"
	"unbake/internal/preflight"
	"unbake/internal/repair"
	"unbake/internal/scanner"
	"unbake/internal/status"
)

// lockFileName guards an output root against concurrent runs.
const lockFileName = ".unbake.lock"

// Extractor runs the scan, repair, and write pipeline.
type Extractor struct {
	cfg      *config.Config
	logger   *slog.Logger
	repairer *repair.Repairer
	prompter Prompter
}

// New constructs an extractor from configuration. The conflict prompt is
// only wired up when stdin is a terminal; otherwise "ask" degrades to
// skip.
func New(cfg *config.Config, logger *slog.Logger) (*Extractor, error) {
	repairer, err := repair.FromConfig(cfg)
	if err != nil {
		return nil, status.Wrap(status.ErrConfiguration, "extract", "init", "build repairer", err)
	}
	var prompter Prompter
	if cfg.Extract.OnConflict == config.ConflictAsk && isatty.IsTerminal(os.Stdin.Fd()) {
		prompter = newTerminalPrompter()
	}
	return NewWithDependencies(cfg, logger, repairer, prompter)
}

// NewWithDependencies wires an extractor with explicit collaborators.
// Tests use it to inject scripted detectors and prompters.
func NewWithDependencies(cfg *config.Config, logger *slog.Logger, repairer *repair.Repairer, prompter Prompter) (*Extractor, error) {
	if cfg == nil {
		return nil, status.Wrap(status.ErrConfiguration, "extract", "init", "configuration is required", nil)
	}
	if repairer == nil {
		return nil, status.Wrap(status.ErrConfiguration, "extract", "init", "repairer is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "extract"),
		repairer: repairer,
		prompter: prompter,
	}, nil
}

// Run extracts every archive under source. Degraded entries never fail a
// run; the returned error is reserved for fatal conditions and the
// summary is meaningful in both cases.
func (e *Extractor) Run(ctx context.Context, source string) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}

	source, err := config.ExpandPath(source)
	if err != nil {
		return summary, status.Wrap(status.ErrValidation, "extract", "resolve", "source path", err)
	}

	ctx = status.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, e.logger)

	outputRoot := e.outputRoot(source)
	results := preflight.Evaluate(e.cfg, source, outputRoot)
	for _, result := range results {
		if result.Passed {
			logger.Debug("preflight check passed", logging.String("check", result.Name), logging.String("detail", result.Detail))
		} else {
			logger.Warn("preflight check failed", logging.String("check", result.Name), logging.String("detail", result.Detail))
		}
	}
	if failure := preflight.FatalFailure(results); failure != nil {
		return summary, status.Wrap(status.ErrValidation, "preflight", failure.Name, failure.Detail, nil)
	}

	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return summary, status.Wrap(status.ErrIO, "extract", "prepare", "create output root", err)
	}
	lock := flock.New(filepath.Join(outputRoot, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return summary, status.Wrap(status.ErrIO, "extract", "lock", "acquire output lock", err)
	}
	if !locked {
		return summary, status.Wrap(status.ErrValidation, "extract", "lock", "another run is writing this output root", nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	scan, err := scanner.FindArchives(source)
	if err != nil {
		return summary, status.Wrap(status.ErrValidation, "scan", "find archives", source, err)
	}
	for _, skipped := range scan.Skipped {
		logger.Warn("subtree skipped", logging.String("path", skipped.Path), logging.Error(skipped.Err))
	}
	summary.ArchivesSeen = len(scan.Archives)
	logger.Info("scan complete",
		logging.String("source", source),
		logging.Int("archives", len(scan.Archives)))

	for _, archivePath := range scan.Archives {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		archCtx := status.WithArchive(ctx, archivePath)
		if err := e.processArchive(archCtx, source, archivePath, summary); err != nil {
			return summary, err
		}
	}

	logger.Info("run complete",
		logging.Int("archives_extracted", summary.ArchivesExtracted),
		logging.Int("entries_written", summary.EntriesWritten),
		logging.Int("names_repaired", summary.NamesRepaired),
		logging.Int("contents_converted", summary.ContentsConverted),
		logging.Int("degraded", summary.Degraded))
	return summary, nil
}

// outputRoot is the directory the run writes under, used for locking and
// preflight. Without paths.output_dir, extraction happens beside the
// archives themselves.
func (e *Extractor) outputRoot(source string) string {
	if e.cfg.Paths.OutputDir != "" {
		return e.cfg.Paths.OutputDir
	}
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		return filepath.Dir(source)
	}
	return source
}

// destBase is the directory one archive unpacks beside: the archive's own
// directory, or its mirror under paths.output_dir.
func (e *Extractor) destBase(scanRoot, archivePath string) (string, error) {
	archiveDir := filepath.Dir(archivePath)
	if e.cfg.Paths.OutputDir == "" {
		return archiveDir, nil
	}
	rootDir := scanRoot
	if info, err := os.Stat(scanRoot); err == nil && !info.IsDir() {
		rootDir = filepath.Dir(scanRoot)
	}
	rel, err := filepath.Rel(rootDir, archiveDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(e.cfg.Paths.OutputDir, rel), nil
}

// archiveTally carries per-archive counters into the run summary.
type archiveTally struct {
	entriesWritten    int
	entriesSkipped    int
	contentsConverted int
	degraded          int
}

func (e *Extractor) processArchive(ctx context.Context, scanRoot, archivePath string, summary *Summary) error {
	logger := logging.WithContext(ctx, e.logger)

	entries, err := readHeaders(archivePath)
	if err != nil {
		return status.Wrap(status.ErrArchive, "extract", "open", archivePath, err)
	}

	destBase, err := e.destBase(scanRoot, archivePath)
	if err != nil {
		return status.Wrap(status.ErrIO, "extract", "plan", archivePath, err)
	}

	plan := e.buildPlan(archivePath, entries, destBase)
	summary.NamesRepaired += plan.namesRepaired
	summary.Degraded += plan.degraded
	summary.EntriesSkipped += plan.unsafe
	if plan.nameRepairRan {
		attrs := []any{
			logging.String("encoding", plan.nameChoice.Encoding),
			logging.Float64("confidence", plan.nameChoice.Confidence),
			logging.Bool("fallback", plan.nameChoice.Fallback),
		}
		if plan.nameChoice.Language != "" {
			attrs = append(attrs, logging.String("language", language.DisplayName(plan.nameChoice.Language)))
		}
		logger.Info("filename encoding chosen", attrs...)
	}
	for _, planned := range plan.entries {
		if planned.action == actionSkipUnsafe {
			logger.Warn("entry refused: path escapes extraction root",
				logging.String("entry", planned.relPath))
		}
	}

	if plan.writable == 0 {
		summary.ArchivesSkipped++
		logger.Info("archive skipped: nothing extractable", logging.String("path", archivePath))
		return nil
	}

	tally := archiveTally{}
	if err := e.writeEntries(ctx, logger, plan, &tally); err != nil {
		return err
	}
	summary.EntriesWritten += tally.entriesWritten
	summary.EntriesSkipped += tally.entriesSkipped
	summary.ContentsConverted += tally.contentsConverted
	summary.Degraded += tally.degraded
	summary.ArchivesExtracted++

	logger.Info("archive processed",
		logging.String("path", archivePath),
		logging.Int("entries", tally.entriesWritten),
		logging.Int("skipped", tally.entriesSkipped),
		logging.String("dest", plan.destRoot))

	// Deleting the source is only safe when every extractable entry made
	// it to disk.
	if e.cfg.Extract.DeleteArchives && plan.unsafe == 0 && tally.entriesWritten == plan.writable {
		if err := os.Remove(archivePath); err != nil {
			logger.Warn("failed to delete archive", logging.String("path", archivePath), logging.Error(err))
		} else {
			summary.ArchivesDeleted++
			logger.Info("archive deleted", logging.String("path", archivePath))
		}
	}
	return nil
}

// writeEntries walks the archive a second time and writes every planned
// entry. Matching is by ordinal because rar readers are sequential.
func (e *Extractor) writeEntries(ctx context.Context, logger *slog.Logger, plan *archivePlan, tally *archiveTally) error {
	reader, err := archive.Open(plan.archivePath)
	if err != nil {
		return status.Wrap(status.ErrArchive, "extract", "open", plan.archivePath, err)
	}
	defer reader.Close()

	buf := make([]byte, e.cfg.ChunkSize())
	ordinal := -1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return status.Wrap(status.ErrArchive, "extract", "read", plan.archivePath, err)
		}
		ordinal++
		if ordinal >= len(plan.entries) {
			return status.Wrap(status.ErrArchive, "extract", "read", "archive changed during extraction", nil)
		}
		planned := plan.entries[ordinal]
		if planned.action != actionWrite {
			continue
		}
		if err := e.writeEntry(logger, reader, plan, planned, buf, tally); err != nil {
			return err
		}
	}
}

func (e *Extractor) writeEntry(logger *slog.Logger, src io.Reader, plan *archivePlan, planned plannedEntry, buf []byte, tally *archiveTally) error {
	dest := filepath.Join(plan.destRoot, filepath.FromSlash(planned.relPath))
	dest, write := e.resolveConflict(dest)
	if !write {
		tally.entriesSkipped++
		logger.Info("entry skipped: destination exists", logging.String("dest", dest))
		return nil
	}
	if err := fileutil.EnsureParentDir(dest); err != nil {
		return status.Wrap(status.ErrIO, "extract", "write", dest, err)
	}

	body := src
	if e.cfg.WantsContentRepair(path.Ext(planned.relPath)) {
		decoded, choice, err := e.repairer.NewReader(src)
		if err != nil {
			return status.Wrap(status.ErrArchive, "extract", "read", plan.archivePath+":"+planned.relPath, err)
		}
		body = decoded
		if choice.Encoding != "utf-8" {
			tally.contentsConverted++
			logger.Debug("content converted",
				logging.String("entry", planned.relPath),
				logging.String("encoding", choice.Encoding))
		}
		if choice.Fallback {
			tally.degraded++
		}
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return status.Wrap(status.ErrIO, "extract", "write", dest, err)
	}
	if err := copyChunks(out, body, buf); err != nil {
		out.Close()
		// Best effort: do not leave a torn file behind.
		_ = os.Remove(dest)
		return status.Wrap(status.ErrIO, "extract", "write", dest, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return status.Wrap(status.ErrIO, "extract", "write", dest, err)
	}
	tally.entriesWritten++
	logger.Debug("entry extracted",
		logging.String("entry", planned.relPath),
		logging.String("dest", dest))
	return nil
}

// copyChunks streams src to dst through buf, so peak memory stays at the
// configured chunk size regardless of entry size.
func copyChunks(dst io.Writer, src io.Reader, buf []byte) error {
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("write: %w", writeErr)
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read: %w", readErr)
		}
	}
}

// readHeaders lists an archive's entries without touching any bodies.
func readHeaders(path string) ([]archive.Entry, error) {
	reader, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var entries []archive.Entry
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
}
