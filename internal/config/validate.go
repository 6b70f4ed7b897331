package config

import (
	"errors"
	"fmt"

	"unbake/internal/charset"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateRepair(); err != nil {
		return err
	}
	if err := c.validateExtract(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.FallbackEncoding == "" {
		return errors.New("detection.fallback_encoding must be set")
	}
	if _, err := charset.Resolve(c.Detection.FallbackEncoding); err != nil {
		return fmt.Errorf("detection.fallback_encoding: %w", err)
	}
	if c.Detection.ConfidenceThreshold < 0 || c.Detection.ConfidenceThreshold > 1 {
		return errors.New("detection.confidence_threshold must be between 0 and 1")
	}
	if c.Detection.SampleBytes <= 0 {
		return errors.New("detection.sample_bytes must be positive")
	}
	return nil
}

func (c *Config) validateRepair() error {
	if c.Repair.MaxNameBytes < 0 {
		return errors.New("repair.max_name_bytes must be >= 0")
	}
	if c.Repair.Contents && len(c.Repair.Extensions) == 0 {
		return errors.New("repair.extensions must include at least one extension when repair.contents is true")
	}
	return nil
}

func (c *Config) validateExtract() error {
	switch c.Extract.OnConflict {
	case ConflictAsk, ConflictSkip, ConflictOverwrite, ConflictRename:
	default:
		return fmt.Errorf("extract.on_conflict must be one of ask, skip, overwrite, rename (got %q)", c.Extract.OnConflict)
	}
	if c.Extract.ChunkSizeMiB <= 0 {
		return errors.New("extract.chunk_size_mib must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}
