package config

import (
	"fmt"
	"strings"
)

// normalize canonicalizes string fields. Numeric fields are left exactly as
// configured: Load decodes over Default(), so a non-positive number can only
// come from the document and Validate rejects it instead of repairing it.
func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ReferenceDir, err = expandPath(c.Paths.ReferenceDir); err != nil {
		return fmt.Errorf("paths.reference_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}
