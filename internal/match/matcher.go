package match

import (
	"fmt"
	"sync"
)

const (
	// DefaultFuzzyThreshold is the minimum full-string score.
	DefaultFuzzyThreshold = 85
	// DefaultPartialThreshold is the minimum substring-oriented score.
	DefaultPartialThreshold = 90
	// DefaultDosageTolerance is the relative dosage difference above which a
	// match is rejected.
	DefaultDosageTolerance = 0.20
	// DefaultCacheSize bounds the per-matcher result cache.
	DefaultCacheSize = 10000

	// minCandidateLen excludes short candidates that would fuzzy-match
	// almost anything ("mi", "b1", "d3").
	minCandidateLen = 4
	// minPartialQueryLen gates the substring-oriented retry to queries long
	// enough for windows to be meaningful.
	minPartialQueryLen = 6
)

// Options tunes a Matcher. Zero values fall back to the defaults above.
type Options struct {
	FuzzyThreshold   int
	PartialThreshold int
	DosageTolerance  float64
	CacheSize        int
}

// Result is a scored fuzzy match. A zero Result means no acceptable match.
type Result struct {
	Target string
	Score  int
}

// Matcher scores a query against candidate lists with guard-checked fuzzy
// matching and a bounded result cache. Safe for concurrent use.
type Matcher struct {
	fuzzyThreshold   int
	partialThreshold int
	guard            guard
	cacheSize        int

	mu    sync.Mutex
	cache map[string]Result
	order []string
}

// New builds a Matcher from opts.
func New(opts Options) *Matcher {
	if opts.FuzzyThreshold <= 0 {
		opts.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if opts.PartialThreshold <= 0 {
		opts.PartialThreshold = DefaultPartialThreshold
	}
	if opts.DosageTolerance <= 0 {
		opts.DosageTolerance = DefaultDosageTolerance
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	return &Matcher{
		fuzzyThreshold:   opts.FuzzyThreshold,
		partialThreshold: opts.PartialThreshold,
		guard:            guard{dosageTolerance: opts.DosageTolerance},
		cacheSize:        opts.CacheSize,
		cache:            make(map[string]Result),
	}
}

// Best returns the best guard-approved fuzzy match for query among targets,
// or a zero Result when nothing clears the thresholds. Both hits and misses
// are cached, keyed by query and candidate-list size; at capacity the oldest
// tenth of the entries is evicted in insertion order.
func (m *Matcher) Best(query string, targets []string) Result {
	if query == "" || len(targets) == 0 {
		return Result{}
	}

	key := fmt.Sprintf("%s:%d", query, len(targets))
	m.mu.Lock()
	if cached, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return cached
	}
	m.mu.Unlock()

	result := m.search(query, targets)

	m.mu.Lock()
	if _, ok := m.cache[key]; !ok {
		if len(m.cache) >= m.cacheSize {
			m.evictOldest()
		}
		m.cache[key] = result
		m.order = append(m.order, key)
	}
	m.mu.Unlock()
	return result
}

// evictOldest drops the oldest tenth of the cache, at least one entry.
// Callers must hold mu.
func (m *Matcher) evictOldest() {
	drop := m.cacheSize / 10
	if drop < 1 {
		drop = 1
	}
	if drop > len(m.order) {
		drop = len(m.order)
	}
	for _, key := range m.order[:drop] {
		delete(m.cache, key)
	}
	m.order = append(m.order[:0], m.order[drop:]...)
}

func (m *Matcher) search(query string, targets []string) Result {
	best, bestScore := "", 0
	for _, target := range targets {
		if len(target) < minCandidateLen {
			continue
		}
		if score := Ratio(query, target); score > bestScore {
			best, bestScore = target, score
		}
	}
	if bestScore >= m.fuzzyThreshold {
		if m.guard.Rejects(query, best) {
			return Result{}
		}
		return Result{Target: best, Score: bestScore}
	}

	if len(query) < minPartialQueryLen {
		return Result{}
	}
	best, bestScore = "", 0
	for _, target := range targets {
		if len(target) < minCandidateLen {
			continue
		}
		if score := PartialRatio(query, target); score > bestScore {
			best, bestScore = target, score
		}
	}
	if bestScore >= m.partialThreshold && !m.guard.Rejects(query, best) {
		return Result{Target: best, Score: bestScore}
	}
	return Result{}
}

// CacheLen returns the number of cached results, for stats reporting.
func (m *Matcher) CacheLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}

// ClearCache drops every cached result.
func (m *Matcher) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]Result)
	m.order = nil
}
