package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"unbake/internal/config"
	"unbake/internal/logging"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string
	quietFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string, quietFlag *bool) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
		quietFlag:     quietFlag,
	}
}

func (c *commandContext) quiet() bool {
	return c.quietFlag != nil && *c.quietFlag
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.applyLogOverrides(cfg) {
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) applyLogOverrides(cfg *config.Config) bool {
	changed := false
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		changed = true
	}
	if c.logFormatFlag != nil && strings.TrimSpace(*c.logFormatFlag) != "" {
		cfg.Logging.Format = strings.ToLower(strings.TrimSpace(*c.logFormatFlag))
		changed = true
	}
	return changed
}

// buildLogger opens the run logger writing into the configured log
// directory.
func (c *commandContext) buildLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
