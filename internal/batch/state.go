package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StateFileName is the resume checkpoint written under the log directory.
const StateFileName = "batch_state.json"

// State is the persisted run checkpoint. It is written only after a whole
// batch completes, by the coordinator alone, so a crash mid-batch loses at
// most one batch of progress. LastCompletedBatchIndex is -1 until the first
// batch finishes and never decreases afterwards.
type State struct {
	RunID                   string    `json:"runId"`
	StartedAt               time.Time `json:"startedAt"`
	LastUpdatedAt           time.Time `json:"lastUpdatedAt"`
	LastCompletedBatchIndex int       `json:"lastCompletedBatchIndex"`
	TotalBatches            int       `json:"totalBatches"`
	ProcessedFileCount      int       `json:"processedFileCount"`
	TotalFileCount          int       `json:"totalFileCount"`
	Errors                  []string  `json:"errors"`
	ConfigChecksum          string    `json:"configChecksum"`
}

// Finished reports whether every batch has completed.
func (s *State) Finished() bool {
	return s.TotalBatches > 0 && s.LastCompletedBatchIndex == s.TotalBatches-1
}

// LoadState reads a checkpoint from path.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	return &state, nil
}

// SaveState writes the checkpoint atomically: a temp file in the same
// directory is renamed over the target, so a crash during the write can
// never leave a truncated state file behind.
func SaveState(path string, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".batch_state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
