package main

import (
	"github.com/spf13/cobra"

	"unbake/internal/extract"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [path]",
		Short: "List archives under a path and what extracting them would do",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}
			extractor, err := extract.New(cfg, logger)
			if err != nil {
				return err
			}

			source := "."
			if len(args) == 1 {
				source = args[0]
			}
			infos, err := extractor.Inspect(cmd.Context(), source)
			if err != nil {
				return err
			}
			return renderArchivePreview(cmd.OutOrStdout(), infos)
		},
	}
}
