package config

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
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
	InputDir     string `toml:"input_dir"`
	OutputDir    string `toml:"output_dir"`
	LogDir       string `toml:"log_dir"`
	ReferenceDir string `toml:"reference_dir"`
}

// Processing contains batch sizing and worker pool configuration.
type Processing struct {
	BatchSize  int `toml:"batch_size"`
	MaxWorkers int `toml:"max_workers"`
	// ParallelMinIngredients is the ingredient count above which a single
	// record's rows are worth classifying concurrently.
	ParallelMinIngredients int `toml:"parallel_min_ingredients"`
}

// Matching tunes the fuzzy ingredient matcher.
type Matching struct {
	FuzzyThreshold   int     `toml:"fuzzy_threshold"`
	PartialThreshold int     `toml:"partial_threshold"`
	DosageTolerance  float64 `toml:"dosage_tolerance"`
	CacheSize        int     `toml:"cache_size"`
}

// Options contains feature toggles.
type Options struct {
	SkipNutritionFacts bool `toml:"skip_nutrition_facts"`
	TrackUnmapped      bool `toml:"track_unmapped"`
}

// OutputFormat controls how cleaned records are written.
type OutputFormat struct {
	// MultilineRecords writes one record per line (JSONL) instead of a JSON
	// array per file.
	MultilineRecords bool `toml:"multiline_records"`
	PrettyPrint      bool `toml:"pretty_print"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for labelclean.
//
// Configuration sections by subsystem:
//   - Paths: input, output, log, and reference-data directories
//   - Processing: batch sizing and worker pool limits
//   - Matching: fuzzy matcher thresholds and cache bounds
//   - Options: nutrition-fact filtering and unmapped-ingredient tracking
//   - OutputFormat: JSON vs JSONL record output and indentation
//   - Logging: log format, level, and retention
type Config struct {
	Paths        Paths        `toml:"paths"`
	Processing   Processing   `toml:"processing"`
	Matching     Matching     `toml:"matching"`
	Options      Options      `toml:"options"`
	OutputFormat OutputFormat `toml:"output_format"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/labelclean/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
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

	projectPath, err := filepath.Abs("labelclean.toml")
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

// EnsureDirectories creates the directories a processing run writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Checksum fingerprints the settings that change processing semantics. A
// resumed run compares this against the value stored at checkpoint time:
// continuing a half-finished run under different matching thresholds or a
// different input directory would mix incompatible partial results.
func (c *Config) Checksum() string {
	h := sha256.New()
	fmt.Fprintf(h, "input=%s\n", c.Paths.InputDir)
	fmt.Fprintf(h, "reference=%s\n", c.Paths.ReferenceDir)
	fmt.Fprintf(h, "batch_size=%d\n", c.Processing.BatchSize)
	fmt.Fprintf(h, "fuzzy=%d partial=%d dosage=%g\n",
		c.Matching.FuzzyThreshold, c.Matching.PartialThreshold, c.Matching.DosageTolerance)
	fmt.Fprintf(h, "skip_nutrition=%t\n", c.Options.SkipNutritionFacts)
	return hex.EncodeToString(h.Sum(nil))
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
