// Package repair converts byte blobs of unknown encoding to UTF-8.
//
// Key responsibilities:
//   - Choosing an encoding per blob: trust the statistical detector when
//     its confidence clears the configured threshold and x/text can decode
//     the guess, otherwise apply the configured fallback.
//   - Decoding with hard guarantees: output is always valid UTF-8, with
//     U+FFFD standing in for bytes that could not be interpreted. Repair
//     never fails; bad input degrades, it does not abort a run.
//   - Streaming decode for file contents, sampling only the head for
//     detection and carrying partial multi-byte sequences across reads.
//
// The detector is injected, so tests and alternate classifiers slot in
// without touching the selection policy.
package repair
