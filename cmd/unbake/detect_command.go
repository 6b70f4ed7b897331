package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"unbake/internal/config"
	"unbake/internal/detect"
	"unbake/internal/language"
	"unbake/internal/repair"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Show encoding candidates for a file and the decision unbake would make",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			blob, err := readSample(args[0], cfg.Detection.SampleBytes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			guesses, err := detect.New().DetectAll(blob)
			switch {
			case errors.Is(err, detect.ErrNotDetected):
				fmt.Fprintln(out, "No encoding detected")
			case err != nil:
				return err
			default:
				rows := make([][]string, 0, len(guesses))
				for _, guess := range guesses {
					lang := language.DisplayName(guess.Language)
					if lang == "" {
						lang = "-"
					}
					rows = append(rows, []string{
						guess.Charset,
						lang,
						fmt.Sprintf("%.2f", guess.Confidence),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Charset", "Language", "Confidence"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
			}

			repairer, err := repair.FromConfig(cfg)
			if err != nil {
				return err
			}
			choice := repairer.Choose(blob)
			if choice.Fallback {
				fmt.Fprintf(out, "Would decode as %s (fallback; threshold %.2f)\n",
					choice.Encoding, cfg.Detection.ConfidenceThreshold)
			} else {
				fmt.Fprintf(out, "Would decode as %s (confidence %.2f)\n",
					choice.Encoding, choice.Confidence)
			}
			return nil
		},
	}
}

// readSample reads at most sampleBytes from the head of the file, the same
// window detection sees during extraction.
func readSample(path string, sampleBytes int) ([]byte, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(expanded)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	blob, err := io.ReadAll(io.LimitReader(file, int64(sampleBytes)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", expanded, err)
	}
	return blob, nil
}
