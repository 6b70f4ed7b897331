// Package extract drives the scan, plan, and write pipeline that unpacks
// archives with repaired names and contents.
//
// Each archive is processed in two passes. The first pass reads only the
// headers, repairs non-UTF-8 filenames in one batch, refuses entries whose
// paths would escape the extraction root, and decides the destination
// directory from the archive's own structure. The second pass walks the
// archive again and writes the planned entries, converting text contents
// whose extensions are configured for repair. The two-pass shape exists
// because rar archives only read sequentially, so entries are matched by
// ordinal rather than by name.
//
// Failures divide into two classes. Fatal conditions such as an unreadable
// source, a held output lock, or a failed write abort the run with a
// wrapped sentinel error. Fidelity losses such as fallback encodings,
// scrubbed names, and refused paths are counted on the Summary and the run
// continues. Callers decide the process exit from the returned error, not
// from the counters.
package extract
