package runlog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"labelclean/internal/runlog"
	"labelclean/internal/unmapped"
)

func mustOpen(t *testing.T) *runlog.Store {
	t.Helper()
	store, err := runlog.Open(filepath.Join(t.TempDir(), "runlog.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEnsureRunChecksumGate(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	if err := store.EnsureRun(ctx, "run-1", "abc123"); err != nil {
		t.Fatalf("EnsureRun (new) failed: %v", err)
	}
	if err := store.EnsureRun(ctx, "run-1", "abc123"); err != nil {
		t.Fatalf("EnsureRun (same checksum) failed: %v", err)
	}
	err := store.EnsureRun(ctx, "run-1", "def456")
	if !errors.Is(err, runlog.ErrChecksumMismatch) {
		t.Fatalf("EnsureRun (changed checksum) = %v, want ErrChecksumMismatch", err)
	}
}

func TestRecordBatchAndSummary(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	if err := store.EnsureRun(ctx, "run-1", "abc123"); err != nil {
		t.Fatalf("EnsureRun failed: %v", err)
	}
	results := []runlog.FileResult{
		{File: "a.json", BatchIndex: 0, Status: "success", Products: 10},
		{File: "b.json", BatchIndex: 0, Status: "needs_review", Products: 4},
		{File: "c.json", BatchIndex: 1, Status: "success", Products: 7},
		{File: "d.json", BatchIndex: 1, Status: "error", Error: "unreadable"},
	}
	if err := store.RecordBatch(ctx, "run-1", results[:2], nil); err != nil {
		t.Fatalf("RecordBatch 0 failed: %v", err)
	}
	if err := store.RecordBatch(ctx, "run-1", results[2:], nil); err != nil {
		t.Fatalf("RecordBatch 1 failed: %v", err)
	}

	summary, err := store.Summary(ctx, "run-1")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	want := map[string]int{"success": 2, "needs_review": 1, "error": 1}
	for status, count := range want {
		if summary[status] != count {
			t.Errorf("summary[%q] = %d, want %d", status, summary[status], count)
		}
	}

	files, err := store.CompletedFiles(ctx, "run-1")
	if err != nil {
		t.Fatalf("CompletedFiles failed: %v", err)
	}
	if len(files) != 4 || !files["d.json"] {
		t.Fatalf("completed files = %v, want all four", files)
	}
}

func TestRecordBatchReprocessOverwrites(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	if err := store.EnsureRun(ctx, "run-1", "abc123"); err != nil {
		t.Fatalf("EnsureRun failed: %v", err)
	}
	first := []runlog.FileResult{{File: "a.json", BatchIndex: 0, Status: "error", Error: "transient"}}
	second := []runlog.FileResult{{File: "a.json", BatchIndex: 0, Status: "success", Products: 3}}
	if err := store.RecordBatch(ctx, "run-1", first, nil); err != nil {
		t.Fatalf("RecordBatch failed: %v", err)
	}
	if err := store.RecordBatch(ctx, "run-1", second, nil); err != nil {
		t.Fatalf("RecordBatch (rerun) failed: %v", err)
	}

	summary, err := store.Summary(ctx, "run-1")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary["success"] != 1 || summary["error"] != 0 {
		t.Fatalf("summary = %v, want rerun to replace the error outcome", summary)
	}
}

func TestLoadTalliesReplaysAccumulator(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	if err := store.EnsureRun(ctx, "run-1", "abc123"); err != nil {
		t.Fatalf("EnsureRun failed: %v", err)
	}

	// Two batches mention the same ingredient; replay must sum them.
	batch0 := []unmapped.Entry{
		{Name: "mystery root", Active: true, Frequency: 3, VariationsTried: []string{"mystery root", "mysteryroot"}},
		{Name: "shellac", Active: false, Frequency: 1},
	}
	batch1 := []unmapped.Entry{
		{Name: "mystery root", Active: true, Frequency: 2},
	}
	if err := store.RecordBatch(ctx, "run-1", nil, batch0); err != nil {
		t.Fatalf("RecordBatch 0 failed: %v", err)
	}
	if err := store.RecordBatch(ctx, "run-1", nil, batch1); err != nil {
		t.Fatalf("RecordBatch 1 failed: %v", err)
	}

	acc := unmapped.NewAccumulator()
	if err := store.LoadTallies(ctx, "run-1", acc); err != nil {
		t.Fatalf("LoadTallies failed: %v", err)
	}

	entries := acc.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("replayed %d entries, want 2", len(entries))
	}
	root := entries[0]
	if root.Name != "mystery root" || root.Frequency != 5 || !root.Active {
		t.Fatalf("replayed entry = %+v, want mystery root with frequency 5", root)
	}
	if len(root.VariationsTried) != 2 {
		t.Fatalf("variations = %v, want the two recorded lookup variants", root.VariationsTried)
	}
	if entries[1].Name != "shellac" || entries[1].Active {
		t.Fatalf("second entry = %+v, want inactive shellac", entries[1])
	}
}

func TestRecordBatchRerunDoesNotDoubleCountTallies(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	if err := store.EnsureRun(ctx, "run-1", "abc123"); err != nil {
		t.Fatalf("EnsureRun failed: %v", err)
	}

	results := []runlog.FileResult{{File: "a.json", BatchIndex: 0, Status: "success", Products: 1}}
	tallies := []unmapped.Entry{{Name: "mystery root", Active: true, Frequency: 3}}
	if err := store.RecordBatch(ctx, "run-1", results, tallies); err != nil {
		t.Fatalf("RecordBatch failed: %v", err)
	}
	// A resume after a crash between the batch commit and the checkpoint
	// write records the same batch again.
	if err := store.RecordBatch(ctx, "run-1", results, tallies); err != nil {
		t.Fatalf("RecordBatch (rerun) failed: %v", err)
	}

	acc := unmapped.NewAccumulator()
	if err := store.LoadTallies(ctx, "run-1", acc); err != nil {
		t.Fatalf("LoadTallies failed: %v", err)
	}
	entries := acc.Snapshot()
	if len(entries) != 1 || entries[0].Frequency != 3 {
		t.Fatalf("replayed entries = %+v, want one entry with frequency 3", entries)
	}
}

func TestOpenRejectsUnknownRun(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	summary, err := store.Summary(ctx, "never-started")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if len(summary) != 0 {
		t.Fatalf("summary = %v, want empty for unknown run", summary)
	}
}
