package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// OutputDir mirrors extracted output under this directory. Empty means
	// extract next to each archive.
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Detection contains configuration for the statistical encoding detector.
type Detection struct {
	// FallbackEncoding is used whenever detection confidence is too low.
	// This is a domain policy, not a generic default: archives handled by
	// this tool are overwhelmingly Shift-JIS when detection fails.
	FallbackEncoding string `toml:"fallback_encoding"`
	// ConfidenceThreshold is the minimum detector confidence, in [0,1],
	// required to trust a guess over the fallback.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	// SampleBytes bounds how much of a file's head feeds the detector.
	SampleBytes int `toml:"sample_bytes"`
}

// Repair controls which parts of an archive entry get re-encoded.
type Repair struct {
	Filenames bool `toml:"filenames"`
	Contents  bool `toml:"contents"`
	// Extensions lists the file extensions (without dot) whose contents
	// are candidates for re-encoding.
	Extensions []string `toml:"extensions"`
	// MaxNameBytes truncates extracted base names to this many UTF-8
	// bytes. Zero disables truncation.
	MaxNameBytes int `toml:"max_name_bytes"`
}

// Extract contains extraction behaviour settings.
type Extract struct {
	// OnConflict is one of ask, skip, overwrite, rename.
	OnConflict     string `toml:"on_conflict"`
	DeleteArchives bool   `toml:"delete_archives"`
	ChunkSizeMiB   int    `toml:"chunk_size_mib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for unbake.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Detection Detection `toml:"detection"`
	Repair    Repair    `toml:"repair"`
	Extract   Extract   `toml:"extract"`
	Logging   Logging   `toml:"logging"`
}

// Conflict policies accepted by extract.on_conflict.
const (
	ConflictAsk       = "ask"
	ConflictSkip      = "skip"
	ConflictOverwrite = "overwrite"
	ConflictRename    = "rename"
)

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/unbake/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file actually existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// ResolvePath reports where configuration would be read from and whether
// a file exists there, without parsing anything.
func ResolvePath(path string) (string, bool, error) {
	return resolveConfigPath(path)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("unbake.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
			return fmt.Errorf("paths.output_dir: %w", err)
		}
	} else {
		c.Paths.OutputDir = ""
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	if value, ok := os.LookupEnv("UNBAKE_FALLBACK_ENCODING"); ok && strings.TrimSpace(value) != "" {
		c.Detection.FallbackEncoding = value
	}
	c.Detection.FallbackEncoding = strings.TrimSpace(c.Detection.FallbackEncoding)
	if c.Detection.FallbackEncoding == "" {
		c.Detection.FallbackEncoding = defaultFallbackEncoding
	}

	exts := make([]string, 0, len(c.Repair.Extensions))
	for _, ext := range c.Repair.Extensions {
		cleaned := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if cleaned != "" {
			exts = append(exts, cleaned)
		}
	}
	c.Repair.Extensions = exts

	c.Extract.OnConflict = strings.ToLower(strings.TrimSpace(c.Extract.OnConflict))
	if c.Extract.OnConflict == "" {
		c.Extract.OnConflict = defaultOnConflict
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// EnsureDirectories creates the directories unbake needs before running.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// ChunkSize returns the streaming copy buffer size in bytes.
func (c *Config) ChunkSize() int {
	return c.Extract.ChunkSizeMiB << 20
}

// WantsContentRepair reports whether the contents of a file with the given
// extension (with or without leading dot, any case) should be re-encoded.
func (c *Config) WantsContentRepair(ext string) bool {
	if !c.Repair.Contents {
		return false
	}
	cleaned := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if cleaned == "" {
		return false
	}
	for _, candidate := range c.Repair.Extensions {
		if candidate == cleaned {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
