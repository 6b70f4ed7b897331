package extract_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"unbake/internal/config"
	"unbake/internal/detect"
	"unbake/internal/extract"
	"unbake/internal/logging"
	"unbake/internal/repair"
	"unbake/internal/status"
)

// sjisName is 日本語.txt encoded as Shift_JIS.
const sjisName = "\x93\xfa\x96\x7b\x8c\xea.txt"

const japaneseUTF8 = "日本語のテキストです。文字コードの判定に使います。アーカイブの中身を復元します。"

// japaneseUTF8 encoded as Shift-JIS.
var japaneseShiftJIS = []byte(
	"\x93\xfa\x96\x7b\x8c\xea\x82\xcc\x83\x65\x83\x4c\x83\x58\x83\x67" +
		"\x82\xc5\x82\xb7\x81\x42\x95\xb6\x8e\x9a\x83\x52\x81\x5b\x83\x68" +
		"\x82\xcc\x94\xbb\x92\xe8\x82\xc9\x8e\x67\x82\xa2\x82\xdc\x82\xb7" +
		"\x81\x42\x83\x41\x81\x5b\x83\x4a\x83\x43\x83\x75\x82\xcc\x92\x86" +
		"\x90\x67\x82\xf0\x95\x9c\x8c\xb3\x82\xb5\x82\xdc\x82\xb7\x81\x42")

type zipEntry struct {
	name    string
	nonUTF8 bool
	dir     bool
	body    string
}

func writeZip(t *testing.T, path string, entries []zipEntry) {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, entry := range entries {
		header := &zip.FileHeader{Name: entry.name, NonUTF8: entry.nonUTF8}
		target, err := writer.CreateHeader(header)
		if err != nil {
			t.Fatalf("create header %q: %v", entry.name, err)
		}
		if !entry.dir {
			if _, err := target.Write([]byte(entry.body)); err != nil {
				t.Fatalf("write body %q: %v", entry.name, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write zip file: %v", err)
	}
}

type stubDetector struct {
	guess detect.Guess
	err   error
}

func (d stubDetector) Detect([]byte) (detect.Guess, error) {
	return d.guess, d.err
}

// abstain behaves like the detector on hopeless input, pushing every
// decision onto the configured fallback.
var abstain = stubDetector{err: detect.ErrNotDetected}

type scriptedPrompter struct {
	answer string
	asked  []string
}

func (p *scriptedPrompter) Resolve(path string) string {
	p.asked = append(p.asked, path)
	return p.answer
}

// testConfig keeps runs deterministic: no content repair unless a test
// turns it on, small copy buffers, and explicit conflict policies.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.Repair.Contents = false
	cfg.Extract.OnConflict = config.ConflictSkip
	cfg.Extract.ChunkSizeMiB = 1
	return cfg
}

func newExtractor(t *testing.T, cfg config.Config, detector detect.Detector, prompter extract.Prompter) *extract.Extractor {
	t.Helper()
	repairer, err := repair.New(repair.Options{
		Detector:    detector,
		Fallback:    cfg.Detection.FallbackEncoding,
		Threshold:   cfg.Detection.ConfidenceThreshold,
		SampleBytes: cfg.Detection.SampleBytes,
	})
	if err != nil {
		t.Fatalf("build repairer: %v", err)
	}
	ex, err := extract.NewWithDependencies(&cfg, logging.NewNop(), repairer, prompter)
	if err != nil {
		t.Fatalf("build extractor: %v", err)
	}
	return ex
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRunRepairsShiftJISFilenames(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "photos.zip")
	writeZip(t, archivePath, []zipEntry{
		{name: sjisName, nonUTF8: true, body: "konnichiwa"},
	})
	before, err := os.ReadFile(archivePath)
	if err != nil {
		t.Fatal(err)
	}

	ex := newExtractor(t, testConfig(), abstain, nil)
	summary, err := ex.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := readFile(t, filepath.Join(dir, "日本語.txt")); got != "konnichiwa" {
		t.Fatalf("unexpected body: %q", got)
	}
	if after := readFile(t, archivePath); after != string(before) {
		t.Fatal("source archive modified by extraction")
	}
	if summary.RunID == "" {
		t.Fatal("summary missing run id")
	}
	if summary.ArchivesSeen != 1 || summary.ArchivesExtracted != 1 {
		t.Fatalf("archive counts: %+v", summary)
	}
	if summary.EntriesWritten != 1 || summary.NamesRepaired != 1 {
		t.Fatalf("entry counts: %+v", summary)
	}
	// The detector abstained, so the fallback counts as fidelity loss.
	if summary.Degraded != 1 {
		t.Fatalf("Degraded = %d, want 1", summary.Degraded)
	}
	if _, err := os.Stat(filepath.Join(dir, ".unbake.lock")); err != nil {
		t.Fatalf("lock file missing after run: %v", err)
	}
}

func TestRunGroupsLooseFilesUnderArchiveName(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeZip(t, filepath.Join(sub, "bundle.zip"), []zipEntry{
		{name: "a.txt", body: "A"},
		{name: "b/c.txt", body: "C"},
	})

	ex := newExtractor(t, testConfig(), abstain, nil)
	if _, err := ex.Run(context.Background(), root); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := readFile(t, filepath.Join(sub, "bundle", "a.txt")); got != "A" {
		t.Fatalf("unexpected body: %q", got)
	}
	if got := readFile(t, filepath.Join(sub, "bundle", "b", "c.txt")); got != "C" {
		t.Fatalf("unexpected body: %q", got)
	}
}

func TestRunSingleRootUnpacksInPlace(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "wrapped.zip"), []zipEntry{
		{name: "root/", dir: true},
		{name: "root/x.txt", body: "X"},
		{name: "root/y.txt", body: "Y"},
	})

	ex := newExtractor(t, testConfig(), abstain, nil)
	summary, err := ex.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := readFile(t, filepath.Join(dir, "root", "x.txt")); got != "X" {
		t.Fatalf("unexpected body: %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "root", "y.txt")); got != "Y" {
		t.Fatalf("unexpected body: %q", got)
	}
	// The shared top-level directory already names the content; no
	// "wrapped" wrapper on top of it.
	if _, err := os.Stat(filepath.Join(dir, "wrapped")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unexpected wrapper directory: %v", err)
	}
	if summary.EntriesWritten != 2 {
		t.Fatalf("EntriesWritten = %d, want 2", summary.EntriesWritten)
	}
}

func TestRunConvertsTextContents(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "docs.zip"), []zipEntry{
		{name: "memo.txt", body: string(japaneseShiftJIS)},
		{name: "raw.bin", body: string(japaneseShiftJIS)},
	})

	cfg := testConfig()
	cfg.Repair.Contents = true
	confident := stubDetector{guess: detect.Guess{Charset: "Shift_JIS", Confidence: 0.88}}
	ex := newExtractor(t, cfg, confident, nil)
	summary, err := ex.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := readFile(t, filepath.Join(dir, "docs", "memo.txt")); got != japaneseUTF8 {
		t.Fatalf("memo not converted: %q", got)
	}
	// Extensions outside the repair list pass through byte for byte.
	if got := readFile(t, filepath.Join(dir, "docs", "raw.bin")); got != string(japaneseShiftJIS) {
		t.Fatalf("binary entry altered: %x", got)
	}
	if summary.ContentsConverted != 1 {
		t.Fatalf("ContentsConverted = %d, want 1", summary.ContentsConverted)
	}
	if summary.Degraded != 0 {
		t.Fatalf("Degraded = %d, want 0", summary.Degraded)
	}
}

func TestRunContentFallbackCountsDegraded(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "docs.zip"), []zipEntry{
		{name: "memo.txt", body: string(japaneseShiftJIS)},
	})

	cfg := testConfig()
	cfg.Repair.Contents = true
	ex := newExtractor(t, cfg, abstain, nil)
	summary, err := ex.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// The shift_jis fallback happens to be right for this content, but the
	// decision was a guess and the summary says so.
	if got := readFile(t, filepath.Join(dir, "memo.txt")); got != japaneseUTF8 {
		t.Fatalf("memo not converted: %q", got)
	}
	if summary.ContentsConverted != 1 || summary.Degraded != 1 {
		t.Fatalf("counts: %+v", summary)
	}
}

func TestRunConflictPolicies(t *testing.T) {
	setup := func(t *testing.T, policy string) (*extract.Summary, string) {
		t.Helper()
		dir := t.TempDir()
		writeZip(t, filepath.Join(dir, "box.zip"), []zipEntry{
			{name: "note.txt", body: "new"},
		})
		if err := os.WriteFile(filepath.Join(dir, "note.txt"), []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg := testConfig()
		cfg.Extract.OnConflict = policy
		ex := newExtractor(t, cfg, abstain, nil)
		summary, err := ex.Run(context.Background(), dir)
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		return summary, dir
	}

	t.Run("skip keeps the existing file", func(t *testing.T) {
		summary, dir := setup(t, config.ConflictSkip)
		if got := readFile(t, filepath.Join(dir, "note.txt")); got != "old" {
			t.Fatalf("existing file replaced: %q", got)
		}
		if summary.EntriesSkipped != 1 || summary.EntriesWritten != 0 {
			t.Fatalf("counts: %+v", summary)
		}
	})

	t.Run("overwrite replaces it", func(t *testing.T) {
		summary, dir := setup(t, config.ConflictOverwrite)
		if got := readFile(t, filepath.Join(dir, "note.txt")); got != "new" {
			t.Fatalf("existing file kept: %q", got)
		}
		if summary.EntriesWritten != 1 {
			t.Fatalf("counts: %+v", summary)
		}
	})

	t.Run("rename writes beside it", func(t *testing.T) {
		summary, dir := setup(t, config.ConflictRename)
		if got := readFile(t, filepath.Join(dir, "note.txt")); got != "old" {
			t.Fatalf("existing file replaced: %q", got)
		}
		if got := readFile(t, filepath.Join(dir, "note_2.txt")); got != "new" {
			t.Fatalf("renamed entry body: %q", got)
		}
		if summary.EntriesWritten != 1 {
			t.Fatalf("counts: %+v", summary)
		}
	})
}

func TestRunAskConsultsPrompter(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "box.zip"), []zipEntry{
		{name: "note.txt", body: "new"},
	})
	existing := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Extract.OnConflict = config.ConflictAsk
	prompter := &scriptedPrompter{answer: config.ConflictOverwrite}
	ex := newExtractor(t, cfg, abstain, prompter)
	if _, err := ex.Run(context.Background(), dir); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(prompter.asked) != 1 || prompter.asked[0] != existing {
		t.Fatalf("prompter consulted for %v", prompter.asked)
	}
	if got := readFile(t, existing); got != "new" {
		t.Fatalf("answer not honored: %q", got)
	}
}

func TestRunDeletesFullyExtractedArchives(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "full.zip")
	writeZip(t, archivePath, []zipEntry{
		{name: "a.txt", body: "A"},
	})

	cfg := testConfig()
	cfg.Extract.DeleteArchives = true
	ex := newExtractor(t, cfg, abstain, nil)
	summary, err := ex.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if _, err := os.Stat(archivePath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("archive still present: %v", err)
	}
	if summary.ArchivesDeleted != 1 {
		t.Fatalf("ArchivesDeleted = %d, want 1", summary.ArchivesDeleted)
	}
	if got := readFile(t, filepath.Join(dir, "a.txt")); got != "A" {
		t.Fatalf("unexpected body: %q", got)
	}
}

func TestRunKeepsArchiveWhenEntriesSkipped(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "full.zip")
	writeZip(t, archivePath, []zipEntry{
		{name: "a.txt", body: "A"},
	})
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Extract.DeleteArchives = true
	ex := newExtractor(t, cfg, abstain, nil)
	summary, err := ex.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// A skipped entry means the archive still holds data not on disk.
	if _, err := os.Stat(archivePath); err != nil {
		t.Fatalf("archive deleted despite skipped entry: %v", err)
	}
	if summary.ArchivesDeleted != 0 {
		t.Fatalf("ArchivesDeleted = %d, want 0", summary.ArchivesDeleted)
	}
}

func TestRunRefusesEscapingEntries(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeZip(t, filepath.Join(sub, "trap.zip"), []zipEntry{
		{name: "../evil.txt", body: "out"},
		{name: "good.txt", body: "ok"},
	})

	ex := newExtractor(t, testConfig(), abstain, nil)
	summary, err := ex.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := readFile(t, filepath.Join(sub, "good.txt")); got != "ok" {
		t.Fatalf("unexpected body: %q", got)
	}
	if _, err := os.Stat(filepath.Join(root, "evil.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("traversal entry escaped: %v", err)
	}
	if summary.EntriesWritten != 1 || summary.EntriesSkipped != 1 || summary.Degraded != 1 {
		t.Fatalf("counts: %+v", summary)
	}
}

func TestRunDoesNotRecurseIntoExtractedArchives(t *testing.T) {
	dir := t.TempDir()
	staging := t.TempDir()

	innerPath := filepath.Join(staging, "inner.zip")
	writeZip(t, innerPath, []zipEntry{
		{name: "secret.txt", body: "nested"},
	})
	innerBytes, err := os.ReadFile(innerPath)
	if err != nil {
		t.Fatal(err)
	}
	writeZip(t, filepath.Join(dir, "outer.zip"), []zipEntry{
		{name: "inner.zip", body: string(innerBytes)},
	})

	ex := newExtractor(t, testConfig(), abstain, nil)
	summary, err := ex.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// The nested archive is written out verbatim, one level deep only.
	if got := readFile(t, filepath.Join(dir, "inner.zip")); got != string(innerBytes) {
		t.Fatal("extracted inner archive differs from the stored bytes")
	}
	if _, err := os.Stat(filepath.Join(dir, "secret.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("nested archive was expanded: %v", err)
	}
	if summary.ArchivesSeen != 1 || summary.ArchivesExtracted != 1 {
		t.Fatalf("counts: %+v", summary)
	}
}

func TestRunSkipsArchiveWithNothingExtractable(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "hollow.zip"), []zipEntry{
		{name: "docs/", dir: true},
	})

	ex := newExtractor(t, testConfig(), abstain, nil)
	summary, err := ex.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.ArchivesSkipped != 1 || summary.ArchivesExtracted != 0 {
		t.Fatalf("counts: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(dir, "hollow")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unexpected output for empty archive: %v", err)
	}
}

func TestRunFailsOnUnwritableOutput(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	src := t.TempDir()
	writeZip(t, filepath.Join(src, "a.zip"), []zipEntry{
		{name: "x.txt", body: "X"},
	})
	out := t.TempDir()
	if err := os.Chmod(out, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(out, 0o755) })

	cfg := testConfig()
	cfg.Paths.OutputDir = out
	ex := newExtractor(t, cfg, abstain, nil)
	_, err := ex.Run(context.Background(), src)
	if !errors.Is(err, status.ErrValidation) {
		t.Fatalf("expected preflight failure, got %v", err)
	}
	entries, readErr := os.ReadDir(out)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("files written into refused output root: %v", entries)
	}
}

func TestRunFailsWhenOutputLockHeld(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "a.zip"), []zipEntry{
		{name: "x.txt", body: "X"},
	})

	held := flock.New(filepath.Join(dir, ".unbake.lock"))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("acquire test lock: locked=%v err=%v", locked, err)
	}
	defer held.Unlock()

	ex := newExtractor(t, testConfig(), abstain, nil)
	_, err = ex.Run(context.Background(), dir)
	if !errors.Is(err, status.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "x.txt")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("extraction ran under foreign lock: %v", statErr)
	}
}

func TestRunMirrorsOutputDir(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	sub := filepath.Join(src, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeZip(t, filepath.Join(sub, "a.zip"), []zipEntry{
		{name: "f.txt", body: "F"},
	})

	cfg := testConfig()
	cfg.Paths.OutputDir = out
	ex := newExtractor(t, cfg, abstain, nil)
	if _, err := ex.Run(context.Background(), src); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := readFile(t, filepath.Join(out, "sub", "f.txt")); got != "F" {
		t.Fatalf("unexpected body: %q", got)
	}
	// Nothing lands beside the source archives when an output dir is set.
	if _, err := os.Stat(filepath.Join(sub, "f.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file written into source tree: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, ".unbake.lock")); err != nil {
		t.Fatalf("lock missing from output root: %v", err)
	}
}

func TestRunCopiesLargeEntriesInChunks(t *testing.T) {
	dir := t.TempDir()
	// Two and a half times the configured 1 MiB chunk.
	body := bytes.Repeat([]byte("0123456789abcdef"), 160*1024)
	writeZip(t, filepath.Join(dir, "big.zip"), []zipEntry{
		{name: "blob.bin", body: string(body)},
	})

	ex := newExtractor(t, testConfig(), abstain, nil)
	if _, err := ex.Run(context.Background(), dir); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "blob.bin"))
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("blob corrupted: got %d bytes, want %d", len(got), len(body))
	}
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "a.zip"), []zipEntry{
		{name: "x.txt", body: "X"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := newExtractor(t, testConfig(), abstain, nil)
	summary, err := ex.Run(ctx, dir)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.EntriesWritten != 0 {
		t.Fatalf("entries written after cancel: %d", summary.EntriesWritten)
	}
}

func TestInspectPreviewsWithoutWriting(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "photos.zip"), []zipEntry{
		{name: sjisName, nonUTF8: true, body: "x"},
	})
	if err := os.WriteFile(filepath.Join(dir, "broken.zip"), []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	ex := newExtractor(t, testConfig(), abstain, nil)
	infos, err := ex.Inspect(context.Background(), dir)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 archives, got %d", len(infos))
	}

	if infos[0].Err == nil {
		t.Fatal("corrupt archive reported no error")
	}
	good := infos[1]
	if good.Entries != 1 || good.Suspect != 1 {
		t.Fatalf("counts: %+v", good)
	}
	if good.Encoding != "shift_jis" || !good.Fallback {
		t.Fatalf("encoding preview: %+v", good)
	}
	if good.DestRoot != dir {
		t.Fatalf("DestRoot = %q, want %q", good.DestRoot, dir)
	}

	if _, err := os.Stat(filepath.Join(dir, "日本語.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("inspect wrote output: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".unbake.lock")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("inspect took the output lock: %v", err)
	}
}
