// Package engine composes the resolution pipeline (taxonomy indexes, fuzzy
// matcher, classifier, product normalizer, validator) behind one type that
// processes input files. Each worker builds its own Engine: indexes and
// caches are duplicated per worker instead of shared, which removes
// cross-worker locking from the matching hot path.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"labelclean/internal/classify"
	"labelclean/internal/config"
	"labelclean/internal/match"
	"labelclean/internal/pipeline"
	"labelclean/internal/product"
	"labelclean/internal/taxonomy"
	"labelclean/internal/unmapped"
)

// ProductResult is the normalized outcome for one product record.
type ProductResult struct {
	Cleaned *product.Cleaned
	Status  product.Status
	Missing []string
	Details product.ValidationDetails
}

// FileOutcome holds every product result parsed from one input file.
type FileOutcome struct {
	File    string
	Results []ProductResult
}

// Engine resolves and classifies the products in input files.
type Engine struct {
	cfg        *config.Config
	set        *taxonomy.Set
	indexes    *taxonomy.IndexSet
	classifier *classify.Classifier
	log        *slog.Logger
}

// New loads the reference taxonomies from cfg.Paths.ReferenceDir and builds
// the worker-local indexes and caches. Reference problems are fatal here;
// nothing is processed before the taxonomies load cleanly.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	set, err := taxonomy.LoadSet(cfg.Paths.ReferenceDir)
	if err != nil {
		return nil, err
	}
	indexes := taxonomy.BuildIndexes(set)

	collisions := 0
	for _, list := range indexes.Collisions() {
		collisions += len(list)
	}
	if collisions > 0 {
		logger.Warn("variation collisions kept first registration", "count", collisions)
	}
	for kind, count := range set.Counts() {
		logger.Debug("taxonomy loaded", "kind", string(kind), "entries", count)
	}

	matcher := match.New(match.Options{
		FuzzyThreshold:   cfg.Matching.FuzzyThreshold,
		PartialThreshold: cfg.Matching.PartialThreshold,
		DosageTolerance:  cfg.Matching.DosageTolerance,
		CacheSize:        cfg.Matching.CacheSize,
	})

	return &Engine{
		cfg:        cfg,
		set:        set,
		indexes:    indexes,
		classifier: classify.New(indexes, matcher),
		log:        logger,
	}, nil
}

// Taxonomies returns the loaded reference set, for validation commands.
func (e *Engine) Taxonomies() *taxonomy.Set { return e.set }

// Collisions returns the variation collisions recorded while indexing.
func (e *Engine) Collisions() map[taxonomy.Kind][]taxonomy.Collision {
	return e.indexes.Collisions()
}

// ProcessFile parses one input file and normalizes every product in it. acc
// receives unmapped-ingredient sightings; it may be nil for dry runs. The
// context is checked between products so a cancelled batch stops promptly.
func (e *Engine) ProcessFile(ctx context.Context, path string, acc *unmapped.Accumulator) (FileOutcome, error) {
	outcome := FileOutcome{File: path}

	raws, err := readProducts(path)
	if err != nil {
		return outcome, pipeline.Wrap(pipeline.ErrInputData, "engine", "read products", path, err)
	}

	normalizer := product.NewNormalizer(e.classifier, acc, product.NormalizerOptions{
		SkipNutritionFacts:     e.cfg.Options.SkipNutritionFacts,
		ParallelMinIngredients: e.cfg.Processing.ParallelMinIngredients,
	}, e.log)

	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		outcome.Results = append(outcome.Results, normalizeOne(normalizer, raw))
	}
	return outcome, nil
}

func normalizeOne(normalizer *product.Normalizer, raw *product.Raw) ProductResult {
	status, missing, details := product.Validate(raw)
	cleaned := normalizer.Normalize(raw)
	status = product.Finalize(status, missing, details, cleaned.MappingStats.MappingRate)
	return ProductResult{
		Cleaned: cleaned,
		Status:  status,
		Missing: missing,
		Details: details,
	}
}

// readProducts accepts either a single product object or an array of
// products per file; both shapes occur in source exports.
func readProducts(path string) ([]*product.Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var single product.Raw
	if err := json.Unmarshal(data, &single); err == nil {
		return []*product.Raw{&single}, nil
	}

	var many []*product.Raw
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, fmt.Errorf("not a product object or array: %w", err)
	}
	return many, nil
}
