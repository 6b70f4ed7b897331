package extract

// Summary aggregates what one run did. Degraded counts events where
// fidelity was lost but the run continued: fallback encodings applied,
// scrubbed names, entries refused for unsafe paths. Conflict skips follow
// user policy and are counted separately.
type Summary struct {
	RunID string

	ArchivesSeen      int
	ArchivesExtracted int
	// ArchivesSkipped counts archives with nothing extractable.
	ArchivesSkipped int
	ArchivesDeleted int

	EntriesWritten int
	EntriesSkipped int

	NamesRepaired     int
	ContentsConverted int
	Degraded          int
}
