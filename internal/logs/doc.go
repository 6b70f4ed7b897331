// Package logs tails the run log with bounded memory.
//
// It prints the last N lines of a log file and can keep polling for
// appended lines, backing `unbake logs --follow`. A missing file is not
// an error: runs that never logged simply produce no output, and a file
// that appears later is picked up mid-follow.
package logs
