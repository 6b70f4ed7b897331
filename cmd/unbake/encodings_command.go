package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"unbake/internal/charset"
)

func newEncodingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "encodings",
		Short:       "List encoding labels accepted for fallback_encoding",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(charset.Names()))
			for _, name := range charset.Names() {
				canonical, err := charset.Canonical(name)
				if err != nil {
					// Names only lists labels that resolve.
					return err
				}
				rows = append(rows, []string{name, canonical})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Label", "Canonical"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}
