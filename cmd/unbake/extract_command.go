package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"unbake/internal/config"
	"unbake/internal/extract"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var onConflict string
	var deleteArchives bool
	var noFilenames bool
	var noContents bool
	var extensions []string
	var maxNameBytes int
	var fallback string
	var threshold float64
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "extract [path]",
		Short: "Extract every archive under a path, repairing encodings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Flag overrides act on a copy so the loaded config stays
			// pristine for other commands.
			cfg := *base
			flags := cmd.Flags()
			if flags.Changed("output") {
				expanded, err := config.ExpandPath(outputDir)
				if err != nil {
					return fmt.Errorf("resolve output dir: %w", err)
				}
				cfg.Paths.OutputDir = expanded
			}
			if flags.Changed("on-conflict") {
				cfg.Extract.OnConflict = onConflict
			}
			if flags.Changed("delete-archives") {
				cfg.Extract.DeleteArchives = deleteArchives
			}
			if noFilenames {
				cfg.Repair.Filenames = false
			}
			if noContents {
				cfg.Repair.Contents = false
			}
			if flags.Changed("extensions") {
				cfg.Repair.Extensions = normalizeExtensions(extensions)
			}
			if flags.Changed("max-name-bytes") {
				cfg.Repair.MaxNameBytes = maxNameBytes
			}
			if flags.Changed("fallback") {
				cfg.Detection.FallbackEncoding = fallback
			}
			if flags.Changed("threshold") {
				cfg.Detection.ConfidenceThreshold = threshold
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}

			extractor, err := extract.New(&cfg, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			source := "."
			if len(args) == 1 {
				source = args[0]
			}

			out := cmd.OutOrStdout()
			if dryRun {
				infos, err := extractor.Inspect(runCtx, source)
				if err != nil {
					return err
				}
				return renderArchivePreview(out, infos)
			}

			summary, err := extractor.Run(runCtx, source)
			if err != nil {
				return err
			}
			if ctx.quiet() {
				return nil
			}
			if summary.ArchivesSeen == 0 {
				fmt.Fprintf(out, "No archives found under %s\n", source)
				return nil
			}
			fmt.Fprint(out, renderSummaryTable(summary))
			fmt.Fprintln(out)
			if summary.Degraded > 0 {
				fmt.Fprintf(out, "%d entries lost fidelity; see the log for details\n", summary.Degraded)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Extract into this directory instead of beside the archives")
	cmd.Flags().StringVar(&onConflict, "on-conflict", "", "Conflict policy: ask, skip, overwrite, or rename")
	cmd.Flags().BoolVar(&deleteArchives, "delete-archives", false, "Delete each archive after full extraction")
	cmd.Flags().BoolVar(&noFilenames, "no-filenames", false, "Keep entry names as stored, without encoding repair")
	cmd.Flags().BoolVar(&noContents, "no-contents", false, "Keep file contents as stored, without re-encoding")
	cmd.Flags().StringSliceVar(&extensions, "extensions", nil, "Extensions whose contents are re-encoded to UTF-8")
	cmd.Flags().IntVar(&maxNameBytes, "max-name-bytes", 0, "Truncate repaired file names to this many bytes (0 = off)")
	cmd.Flags().StringVar(&fallback, "fallback", "", "Encoding assumed when detection is inconclusive")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Minimum detector confidence, between 0 and 1")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the run and print it without writing anything")

	return cmd
}

func renderSummaryTable(summary *extract.Summary) string {
	rows := [][]string{
		{"Archives seen", strconv.Itoa(summary.ArchivesSeen)},
		{"Archives extracted", strconv.Itoa(summary.ArchivesExtracted)},
		{"Archives skipped", strconv.Itoa(summary.ArchivesSkipped)},
		{"Archives deleted", strconv.Itoa(summary.ArchivesDeleted)},
		{"Entries written", strconv.Itoa(summary.EntriesWritten)},
		{"Entries skipped", strconv.Itoa(summary.EntriesSkipped)},
		{"Names repaired", strconv.Itoa(summary.NamesRepaired)},
		{"Contents converted", strconv.Itoa(summary.ContentsConverted)},
		{"Degraded", strconv.Itoa(summary.Degraded)},
	}
	return renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}
