package match

import "testing"

func TestRatio(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 100},
		{"abc", "abc", 100},
		{"abc", "abd", 66},
		{"lactose", "lactase", 85},
		{"kitten", "sitting", 57},
	}
	for _, tc := range cases {
		if got := Ratio(tc.a, tc.b); got != tc.want {
			t.Errorf("Ratio(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPartialRatio(t *testing.T) {
	if got := PartialRatio("ascorbic acid", "ascorbic acid usp grade"); got != 100 {
		t.Fatalf("contained substring score = %d, want 100", got)
	}
	if got := PartialRatio("xyz", "ascorbic acid"); got >= 50 {
		t.Fatalf("unrelated substring score = %d, want low", got)
	}
}

func TestBestExactishMatch(t *testing.T) {
	m := New(Options{})
	got := m.Best("asorbic acid", []string{"ascorbic acid", "citric acid"})
	if got.Target != "ascorbic acid" {
		t.Fatalf("Best = %+v, want ascorbic acid", got)
	}
	if got.Score < DefaultFuzzyThreshold {
		t.Fatalf("score = %d, want >= %d", got.Score, DefaultFuzzyThreshold)
	}
}

func TestBestSkipsShortCandidates(t *testing.T) {
	m := New(Options{})
	if got := m.Best("milk", []string{"mi", "b1", "d3"}); got.Target != "" {
		t.Fatalf("Best = %+v, want no match against short candidates", got)
	}
}

func TestBestPartialOnlyForLongQueries(t *testing.T) {
	m := New(Options{})
	// "riboflavin" is contained in the candidate, so the substring score is
	// 100 even though the full-string score misses the threshold.
	got := m.Best("riboflavin", []string{"riboflavin 5 phosphate sodium"})
	if got.Target == "" {
		t.Fatal("long query should reach the substring-oriented retry")
	}
	// A short query never reaches the retry.
	if got := m.Best("ribo", []string{"riboflavin 5 phosphate sodium"}); got.Target != "" {
		t.Fatalf("Best = %+v, want no match for short query", got)
	}
}

func TestBestRejectsDosageConflicts(t *testing.T) {
	m := New(Options{})
	got := m.Best("vitamin d3 1000 iu", []string{"vitamin d3 5000 iu"})
	if got.Target != "" {
		t.Fatalf("Best = %+v, want rejection for 5x dosage difference", got)
	}
	// 500 vs 600 mg is a 16.7% difference, inside the tolerance.
	got = m.Best("magnesium 500 mg", []string{"magnesium 600 mg"})
	if got.Target == "" {
		t.Fatal("dosage difference inside tolerance should not reject")
	}
}

func TestBestRejectsBlacklistedPairs(t *testing.T) {
	m := New(Options{})
	cases := []struct {
		query  string
		target string
	}{
		{"lactose", "lactase"},
		{"lactase", "lactose"}, // both directions
		{"turmeric root", "turmeric curcumin"},
		{"omega 3 fish oils", "omega 3 and omega 6"},
	}
	for _, tc := range cases {
		if got := m.Best(tc.query, []string{tc.target}); got.Target != "" {
			t.Errorf("Best(%q, %q) = %+v, want blacklist rejection", tc.query, tc.target, got)
		}
	}
}

func TestGuardUnitFamilies(t *testing.T) {
	g := guard{dosageTolerance: DefaultDosageTolerance}
	cases := []struct {
		name   string
		query  string
		target string
		want   bool
	}{
		// 1000 mcg and 1 mg are the same mass, but mixing mcg and mg labels
		// is exactly the confusion the guard exists to catch.
		{"equivalent mass different units", "vitamin b12 1000 mcg", "vitamin b12 1 mg", true},
		{"iu vs mcg", "vitamin d 400 iu", "vitamin d 10 mcg", true},
		{"billion vs million", "probiotic 10 billion cfu", "probiotic 10 million cfu", true},
		{"same unit same dose", "zinc 15 mg", "zinc 15 mg", false},
		{"no dosages present", "zinc picolinate", "zinc gluconate", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.Rejects(tc.query, tc.target); got != tc.want {
				t.Fatalf("Rejects(%q, %q) = %v, want %v", tc.query, tc.target, got, tc.want)
			}
		})
	}
}

func TestGuardBlacklistMatchesPreprocessedNames(t *testing.T) {
	g := guard{dosageTolerance: DefaultDosageTolerance}
	// Isomer prefixes are stripped before matching, so the guard sees
	// "tyrosine" for a label reading "l-tyrosine".
	cases := []struct {
		query  string
		target string
	}{
		{"taurine", "tyrosine"},
		{"tyrosine", "taurine powder"},
		{"caffeine anhydrous", "theanine"},
		{"theanine", "caffeine"},
	}
	for _, tc := range cases {
		if !g.Rejects(tc.query, tc.target) {
			t.Errorf("Rejects(%q, %q) = false, want blacklist rejection", tc.query, tc.target)
		}
	}
}

func TestGuardDosageNormalization(t *testing.T) {
	g := guard{dosageTolerance: DefaultDosageTolerance}
	// 0.5 g and 500 mg normalize to the same mass; the dosage guard itself
	// must not fire. (The unit-family guard still rejects mg vs g.)
	if g.dosageConflict("calcium 0.5 g", "calcium 500 mg") {
		t.Fatal("dosage guard fired on equivalent masses")
	}
	if !g.dosageConflict("calcium 100 mg", "calcium 500 mg") {
		t.Fatal("dosage guard missed a 5x difference")
	}
}

func TestBestCachesResults(t *testing.T) {
	m := New(Options{CacheSize: 4})
	targets := []string{"ascorbic acid"}

	first := m.Best("asorbic acid", targets)
	if m.CacheLen() != 1 {
		t.Fatalf("cache length = %d, want 1", m.CacheLen())
	}
	second := m.Best("asorbic acid", targets)
	if first != second {
		t.Fatalf("cached result %+v != first result %+v", second, first)
	}

	m.ClearCache()
	if m.CacheLen() != 0 {
		t.Fatalf("cache length after clear = %d, want 0", m.CacheLen())
	}
}

func TestBestEvictsOldestAtCapacity(t *testing.T) {
	m := New(Options{CacheSize: 4})
	targets := []string{"ascorbic acid"}

	queries := []string{"citric acid", "malic acid", "folic acid", "acetic acid"}
	for _, q := range queries {
		m.Best(q, targets)
	}
	if m.CacheLen() != 4 {
		t.Fatalf("cache length = %d, want the full bound of 4", m.CacheLen())
	}

	// A new query at capacity evicts the oldest entry and is itself cached.
	m.Best("boric acid", targets)
	if m.CacheLen() != 4 {
		t.Fatalf("cache length = %d, want 4 after eviction", m.CacheLen())
	}
	m.mu.Lock()
	_, oldest := m.cache["citric acid:1"]
	_, newest := m.cache["boric acid:1"]
	m.mu.Unlock()
	if oldest {
		t.Error("oldest entry survived eviction")
	}
	if !newest {
		t.Error("new entry was not cached at capacity")
	}
}
