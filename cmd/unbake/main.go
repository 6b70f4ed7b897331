package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"unbake/internal/status"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(status.ExitCode(err))
	}
}
