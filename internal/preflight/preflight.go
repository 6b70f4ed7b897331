package preflight

import (
	"unbake/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Fatal marks checks whose failure must abort the run before
	// anything is written.
	Fatal  bool
	Detail string
}

// Evaluate runs every check for one extraction run. Source is the scan
// root; output is the directory extraction will write under.
func Evaluate(cfg *config.Config, source, output string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckSourceReadable(source),
		CheckOutputWritable(output),
		CheckDiskSpace(output),
	}
	return results
}

// FatalFailure returns the first failed fatal check, or nil when the run
// may proceed.
func FatalFailure(results []Result) *Result {
	for i := range results {
		if results[i].Fatal && !results[i].Passed {
			return &results[i]
		}
	}
	return nil
}
