package config

const (
	defaultLogDir = "~/.local/share/unbake/logs"

	defaultFallbackEncoding    = "shift_jis"
	defaultConfidenceThreshold = 0.30
	defaultSampleBytes         = 2048

	defaultOnConflict   = ConflictAsk
	defaultChunkSizeMiB = 30

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

func defaultRepairExtensions() []string {
	return []string{"txt", "csv", "tsv"}
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: "",
			LogDir:    defaultLogDir,
		},
		Detection: Detection{
			FallbackEncoding:    defaultFallbackEncoding,
			ConfidenceThreshold: defaultConfidenceThreshold,
			SampleBytes:         defaultSampleBytes,
		},
		Repair: Repair{
			Filenames:    true,
			Contents:     true,
			Extensions:   defaultRepairExtensions(),
			MaxNameBytes: 0,
		},
		Extract: Extract{
			OnConflict:     defaultOnConflict,
			DeleteArchives: false,
			ChunkSizeMiB:   defaultChunkSizeMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
