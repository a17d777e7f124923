package unmapped

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Report is the run-end summary for one role (active or inactive). Tiers
// preserve frequency-descending order within each bucket.
type Report struct {
	GeneratedAt time.Time          `json:"generated_at"`
	TotalCount  int                `json:"total_count"`
	Tiers       map[string][]Entry `json:"tiers"`
}

// BuildReports splits the accumulated entries by role and buckets each side
// into its priority tiers.
func BuildReports(acc *Accumulator, now time.Time) (active, inactive Report) {
	active = Report{GeneratedAt: now, Tiers: map[string][]Entry{
		TierHighPriority:   {},
		TierMediumPriority: {},
		TierLowPriority:    {},
	}}
	inactive = Report{GeneratedAt: now, Tiers: map[string][]Entry{
		TierSafetyReview:     {},
		TierGeneralExcipient: {},
		TierKnownSafe:        {},
	}}
	for _, entry := range acc.Snapshot() {
		if entry.Active {
			tier := ActiveTier(entry.Name, entry.Frequency)
			active.Tiers[tier] = append(active.Tiers[tier], entry)
			active.TotalCount++
		} else {
			tier := InactiveTier(entry.Name, entry.Frequency)
			inactive.Tiers[tier] = append(inactive.Tiers[tier], entry)
			inactive.TotalCount++
		}
	}
	return active, inactive
}

// WriteReports writes the two unmapped summaries under dir, creating it if
// needed.
func WriteReports(dir string, active, inactive Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "unmapped_active_ingredients.json"), active); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "unmapped_inactive_ingredients.json"), inactive)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
