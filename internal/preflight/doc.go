// Package preflight provides readiness checks for the paths an
// extraction run depends on.
//
// The extractor calls Evaluate before opening any archive: an unreadable
// source or an unwritable output root aborts the run before anything is
// written. Disk space is advisory only -- extraction sizes are unknown up
// front, so low space degrades to a warning instead of a refusal.
package preflight
