package unmapped

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestActiveTier(t *testing.T) {
	cases := []struct {
		name      string
		frequency int
		want      string
	}{
		{"anything seen constantly", 10, TierHighPriority},
		{"ashwagandha ksm-66", 5, TierHighPriority},
		{"ashwagandha ksm-66", 2, TierMediumPriority},
		{"magnesium bisglycinate chelate", 3, TierMediumPriority},
		{"magnesium bisglycinate chelate", 1, TierLowPriority},
		{"mystery compound xyz", 4, TierLowPriority},
	}
	for _, tc := range cases {
		if got := ActiveTier(tc.name, tc.frequency); got != tc.want {
			t.Errorf("ActiveTier(%q, %d) = %s, want %s", tc.name, tc.frequency, got, tc.want)
		}
	}
}

func TestInactiveTier(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"artificial flavoring", TierSafetyReview},
		{"fd&c color additive", TierSafetyReview},
		{"microcrystalline cellulose", TierKnownSafe},
		{"vegetable capsule", TierKnownSafe},
		{"croscarmellose sodium", TierGeneralExcipient},
	}
	for _, tc := range cases {
		if got := InactiveTier(tc.name, 1); got != tc.want {
			t.Errorf("InactiveTier(%q) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestAccumulatorMergeMatchesSequential(t *testing.T) {
	// Two accumulators filled batch-by-batch must merge to the same totals a
	// single accumulator would have seen.
	whole := NewAccumulator()
	partA := NewAccumulator()
	partB := NewAccumulator()

	add := func(accs []*Accumulator, name string, active bool) {
		for _, acc := range accs {
			acc.Add(name, active, []string{name})
		}
	}
	add([]*Accumulator{whole, partA}, "zyzzite extract", true)
	add([]*Accumulator{whole, partA}, "zyzzite extract", true)
	add([]*Accumulator{whole, partB}, "zyzzite extract", true)
	add([]*Accumulator{whole, partB}, "croscarmellose sodium", false)

	merged := NewAccumulator()
	merged.Merge(partA)
	merged.Merge(partB)

	wantEntries := whole.Snapshot()
	gotEntries := merged.Snapshot()
	if len(wantEntries) != len(gotEntries) {
		t.Fatalf("entry count %d != %d", len(gotEntries), len(wantEntries))
	}
	for i := range wantEntries {
		if wantEntries[i].Name != gotEntries[i].Name || wantEntries[i].Frequency != gotEntries[i].Frequency {
			t.Fatalf("entry %d: got %+v, want %+v", i, gotEntries[i], wantEntries[i])
		}
	}
}

func TestSnapshotOrderStable(t *testing.T) {
	acc := NewAccumulator()
	acc.Add("b ingredient", true, nil)
	acc.Add("a ingredient", true, nil)
	acc.AddCount("c ingredient", true, nil, 3)

	got := acc.Snapshot()
	if got[0].Name != "c ingredient" {
		t.Fatalf("first = %q, want highest frequency first", got[0].Name)
	}
	if got[1].Name != "a ingredient" || got[2].Name != "b ingredient" {
		t.Fatalf("ties not name-ordered: %+v", got)
	}
}

func TestBuildReports(t *testing.T) {
	acc := NewAccumulator()
	acc.AddCount("zyzzite extract", true, nil, 6)
	acc.Add("mystery compound", false, nil)
	acc.Add("vegetable capsule", false, nil)

	active, inactive := BuildReports(acc, time.Now())
	if active.TotalCount != 1 || inactive.TotalCount != 2 {
		t.Fatalf("counts = %d active, %d inactive, want 1 and 2", active.TotalCount, inactive.TotalCount)
	}
	if len(active.Tiers[TierHighPriority]) != 1 {
		t.Fatalf("active tiers = %+v, want zyzzite extract in high priority", active.Tiers)
	}
	if len(inactive.Tiers[TierSafetyReview]) != 1 || len(inactive.Tiers[TierKnownSafe]) != 1 {
		t.Fatalf("inactive tiers = %+v, want safety review and known safe hits", inactive.Tiers)
	}
}

func TestWriteReports(t *testing.T) {
	dir := t.TempDir() + "/unmapped"
	acc := NewAccumulator()
	acc.Add("zyzzite extract", true, nil)

	active, inactive := BuildReports(acc, time.Now())
	if err := WriteReports(dir, active, inactive); err != nil {
		t.Fatalf("WriteReports: %v", err)
	}
	for _, name := range []string{"unmapped_active_ingredients.json", "unmapped_inactive_ingredients.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}
