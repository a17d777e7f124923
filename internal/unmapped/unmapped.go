// Package unmapped accumulates ingredients no taxonomy could classify and
// buckets them into curation tiers. Active ingredients tier by mapping
// priority, inactive ingredients by safety concern. Accumulators merge, so
// per-worker tallies combine into one run-level result and resumed runs can
// replay tallies recorded by earlier batches.
package unmapped

import (
	"sort"
	"strings"
	"sync"
)

// Tier names for active ingredients.
const (
	TierHighPriority   = "high_priority"
	TierMediumPriority = "medium_priority"
	TierLowPriority    = "low_priority"
)

// Tier names for inactive ingredients.
const (
	TierSafetyReview     = "safety_review_needed"
	TierGeneralExcipient = "general_excipients"
	TierKnownSafe        = "known_safe"
)

// Likely-bioactive name fragments that make an active ingredient worth
// mapping early.
var highPriorityPatterns = []string{
	"extract", "standardized", "proprietary", "blend", "complex",
	"coq10", "ubiquinol", "pqq", "curcumin", "resveratrol",
	"ashwagandha", "rhodiola", "bacopa", "ginkgo", "milk thistle",
	"saw palmetto", "green tea", "grape seed", "pine bark",
	"lutein", "zeaxanthin", "lycopene", "astaxanthin",
}

// Vitamin/mineral/amino fragments.
var mediumPriorityPatterns = []string{
	"vitamin", "mineral", "amino", "acid", "chelate", "gluconate",
	"citrate", "picolinate", "bisglycinate", "malate", "succinate",
	"methylcobalamin", "methylfolate", "tocotrienol",
}

// Fragments suggesting an inactive ingredient needs a safety look.
var safetyReviewPatterns = []string{
	"preservative", "color", "dye", "artificial", "synthetic",
	"chemical", "compound", "solution", "proprietary coating",
	"unknown", "unidentified", "additive",
}

// Common excipients that are safe to deprioritize.
var knownSafePatterns = []string{
	"cellulose", "starch", "flour", "oil", "wax", "water",
	"gelatin", "capsule", "tablet", "coating", "glaze",
	"magnesium stearate", "silicon dioxide", "microcrystalline",
}

// Entry is one unmapped ingredient with its accumulated occurrence count.
type Entry struct {
	Name            string   `json:"name"`
	Frequency       int      `json:"frequency"`
	Active          bool     `json:"active"`
	VariationsTried []string `json:"variations_tried,omitempty"`
}

// Accumulator collects unmapped ingredient occurrences. Safe for concurrent
// use.
type Accumulator struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{entries: make(map[string]*Entry)}
}

// Add records one occurrence of an unmapped ingredient. The first sighting
// fixes the active flag and the variation list.
func (a *Accumulator) Add(name string, active bool, variationsTried []string) {
	a.AddCount(name, active, variationsTried, 1)
}

// AddCount records count occurrences at once; used when replaying persisted
// per-batch tallies on resume.
func (a *Accumulator) AddCount(name string, active bool, variationsTried []string, count int) {
	if name == "" || count <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if entry, ok := a.entries[name]; ok {
		entry.Frequency += count
		return
	}
	a.entries[name] = &Entry{
		Name:            name,
		Frequency:       count,
		Active:          active,
		VariationsTried: variationsTried,
	}
}

// Merge folds other's tallies into a.
func (a *Accumulator) Merge(other *Accumulator) {
	for _, entry := range other.Snapshot() {
		a.AddCount(entry.Name, entry.Active, entry.VariationsTried, entry.Frequency)
	}
}

// Snapshot returns the accumulated entries sorted by frequency descending,
// then name, so output is stable for identical inputs.
func (a *Accumulator) Snapshot() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, 0, len(a.entries))
	for _, entry := range a.entries {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Len returns the number of distinct unmapped names.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// ActiveTier buckets an active ingredient. High frequency outranks any
// pattern; pattern hits then tier by how often the name was seen.
func ActiveTier(name string, frequency int) string {
	lower := strings.ToLower(name)
	if frequency >= 10 {
		return TierHighPriority
	}
	if containsAny(lower, highPriorityPatterns) {
		if frequency >= 5 {
			return TierHighPriority
		}
		return TierMediumPriority
	}
	if containsAny(lower, mediumPriorityPatterns) {
		if frequency >= 3 {
			return TierMediumPriority
		}
		return TierLowPriority
	}
	return TierLowPriority
}

// InactiveTier buckets an inactive ingredient by safety concern.
func InactiveTier(name string, _ int) string {
	lower := strings.ToLower(name)
	if containsAny(lower, safetyReviewPatterns) {
		return TierSafetyReview
	}
	if containsAny(lower, knownSafePatterns) {
		return TierKnownSafe
	}
	return TierGeneralExcipient
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
