// Package main hosts the unbake CLI entrypoint and command graph.
//
// The Cobra-based command tree covers extraction runs, scan previews,
// encoding detection for single files, the list of accepted encoding
// labels, and configuration scaffolding. It centralizes configuration
// resolution and logger setup so subcommands can focus on flags and
// output formatting.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags
// here.
package main
