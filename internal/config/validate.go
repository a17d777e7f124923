package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.ReferenceDir == "" {
		return errors.New("paths.reference_dir must be set")
	}
	if c.Paths.InputDir == c.Paths.OutputDir {
		return errors.New("paths.input_dir and paths.output_dir must differ")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Processing.BatchSize < 1 {
		return fmt.Errorf("processing.batch_size must be positive (got %d)", c.Processing.BatchSize)
	}
	if c.Processing.BatchSize > 10000 {
		return fmt.Errorf("processing.batch_size %d is unreasonably large (max 10000)", c.Processing.BatchSize)
	}
	if c.Processing.MaxWorkers < 1 {
		return fmt.Errorf("processing.max_workers must be positive (got %d)", c.Processing.MaxWorkers)
	}
	if c.Processing.MaxWorkers > 256 {
		return fmt.Errorf("processing.max_workers %d is unreasonably large (max 256)", c.Processing.MaxWorkers)
	}
	if c.Processing.ParallelMinIngredients < 0 {
		return fmt.Errorf("processing.parallel_min_ingredients must not be negative (got %d)", c.Processing.ParallelMinIngredients)
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.FuzzyThreshold < 1 || c.Matching.FuzzyThreshold > 100 {
		return errors.New("matching.fuzzy_threshold must be between 1 and 100")
	}
	if c.Matching.PartialThreshold < 1 || c.Matching.PartialThreshold > 100 {
		return errors.New("matching.partial_threshold must be between 1 and 100")
	}
	if c.Matching.PartialThreshold < c.Matching.FuzzyThreshold {
		return errors.New("matching.partial_threshold must be at least matching.fuzzy_threshold")
	}
	if c.Matching.DosageTolerance <= 0 || c.Matching.DosageTolerance >= 1 {
		return errors.New("matching.dosage_tolerance must be between 0 and 1 (it is a relative fraction)")
	}
	if c.Matching.CacheSize < 1 {
		return fmt.Errorf("matching.cache_size must be positive (got %d)", c.Matching.CacheSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported (use debug, info, warn, or error)", c.Logging.Level)
	}
	return nil
}
