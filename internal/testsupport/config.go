package testsupport

import (
	"path/filepath"
	"testing"

	"labelclean/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and a minimal but loadable set of reference taxonomy files.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(base, "input")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ReferenceDir = filepath.Join(base, "reference")
	cfg.Processing.BatchSize = 2
	cfg.Processing.MaxWorkers = 2

	WriteReferenceFixture(t, cfg.Paths.ReferenceDir)

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBatchSize overrides the batch size on the test config.
func WithBatchSize(size int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Processing.BatchSize = size
	}
}

// WithWorkers overrides the worker count on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Processing.MaxWorkers = workers
	}
}
