// Package batch orchestrates a processing run: the input file set is
// partitioned into fixed-size batches, each batch runs on a worker pool of
// independent engines, and a checkpoint plus a SQLite ledger are persisted
// after every batch so an interrupted run resumes where it left off.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"labelclean/internal/config"
	"labelclean/internal/engine"
	"labelclean/internal/pipeline"
	"labelclean/internal/product"
	"labelclean/internal/runlog"
	"labelclean/internal/unmapped"
)

// LockFileName guards against two orchestrators sharing one state file.
const LockFileName = "labelclean.lock"

// LedgerFileName is the per-run SQLite ledger under the log directory.
const LedgerFileName = "runlog.db"

// Options control one orchestrator run. By default a run resumes from the
// persisted checkpoint whenever one exists and its config checksum matches
// the current configuration.
type Options struct {
	// Fresh discards any existing checkpoint and starts from batch zero.
	Fresh bool
	// FromBatch forces the resume point to a specific 1-based batch number,
	// overriding the checkpoint. Zero leaves the checkpoint in charge.
	FromBatch int
	// DryRun validates configuration and reference data and processes one
	// sample record without committing any output.
	DryRun bool
}

// Summary is the final report for one run.
type Summary struct {
	RunID          string
	TotalFiles     int
	ProcessedFiles int
	TotalBatches   int
	BatchesRun     int
	StatusCounts   map[string]int
	Errors         []string
	UnmappedCount  int
	Interrupted    bool
}

// Orchestrator drives batched processing over the configured input
// directory. Only the orchestrator mutates run-wide state: workers hand
// their results back and never touch the checkpoint, the ledger, or the
// aggregated unmapped counters.
type Orchestrator struct {
	cfg *config.Config
	log *slog.Logger
}

// New builds an Orchestrator.
func New(cfg *config.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{cfg: cfg, log: logger}
}

// Run executes the batch state machine. A context cancellation between
// batches is a recoverable interruption: the last persisted checkpoint
// remains the resumption point and Run returns the context error alongside
// a partial summary.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Summary, error) {
	if err := o.cfg.EnsureDirectories(); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "batch", "prepare", "output directories", err)
	}

	files, err := listInputFiles(o.cfg.Paths.InputDir)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		return o.dryRun(ctx, files)
	}

	lock := flock.New(filepath.Join(o.cfg.Paths.LogDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrState, "batch", "lock", "acquire run lock", err)
	}
	if !locked {
		return nil, pipeline.Wrap(pipeline.ErrState, "batch", "lock", "another labelclean run holds the lock", nil)
	}
	defer func() { _ = lock.Unlock() }()

	batchSize := o.cfg.Processing.BatchSize
	totalBatches := (len(files) + batchSize - 1) / batchSize
	checksum := o.cfg.Checksum()
	statePath := filepath.Join(o.cfg.Paths.LogDir, StateFileName)

	state, startBatch := o.prepareState(opts.Fresh, statePath, checksum, len(files), totalBatches)
	if opts.FromBatch > 0 {
		startBatch = opts.FromBatch - 1
		o.log.Warn("resume point forced", "batch", opts.FromBatch)
	}

	summary := &Summary{
		RunID:        state.RunID,
		TotalFiles:   len(files),
		TotalBatches: totalBatches,
		StatusCounts: map[string]int{},
	}

	if state.Finished() && startBatch >= totalBatches {
		o.log.Info("run already finished; nothing to do", "run_id", state.RunID)
		summary.ProcessedFiles = state.ProcessedFileCount
		summary.Errors = state.Errors
		return summary, nil
	}

	ledger, err := runlog.Open(filepath.Join(o.cfg.Paths.LogDir, LedgerFileName))
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrState, "batch", "ledger", "open run ledger", err)
	}
	defer func() { _ = ledger.Close() }()
	if err := ledger.EnsureRun(ctx, state.RunID, checksum); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrState, "batch", "ledger", "register run", err)
	}

	if startBatch > 0 {
		// The ledger and the checkpoint are written separately; a disagreement
		// means file rows were lost or a batch was recorded twice. Resuming is
		// still safe, but the operator should know.
		done, err := ledger.CompletedFiles(ctx, state.RunID)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrState, "batch", "ledger", "list completed files", err)
		}
		if len(done) != state.ProcessedFileCount {
			o.log.Warn("ledger and checkpoint disagree on processed files",
				"ledger_files", len(done), "checkpoint_files", state.ProcessedFileCount)
		}
	}

	engines, err := o.buildEngines(min(o.cfg.Processing.MaxWorkers, len(files)))
	if err != nil {
		return nil, err
	}

	out := &writer{outputDir: o.cfg.Paths.OutputDir, format: o.cfg.OutputFormat}

	for idx := startBatch; idx < totalBatches; idx++ {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		batchFiles := files[idx*batchSize : min((idx+1)*batchSize, len(files))]
		o.log.Info("batch started", "batch", idx+1, "of", totalBatches, "files", len(batchFiles))

		outcomes, results, batchAcc, err := o.processBatch(ctx, engines, idx, batchFiles)
		if ctx.Err() != nil {
			// The batch did not run to completion; discard it rather than
			// checkpointing partial work.
			summary.Interrupted = true
			break
		}
		if err != nil {
			return summary, err
		}

		if err := out.writeBatch(idx, outcomes); err != nil {
			return summary, pipeline.Wrap(pipeline.ErrState, "batch", "write", fmt.Sprintf("batch %d output", idx), err)
		}
		if err := ledger.RecordBatch(ctx, state.RunID, results, batchAcc.Snapshot()); err != nil {
			return summary, pipeline.Wrap(pipeline.ErrState, "batch", "ledger", fmt.Sprintf("record batch %d", idx), err)
		}

		state.LastCompletedBatchIndex = idx
		state.ProcessedFileCount += len(batchFiles)
		state.LastUpdatedAt = time.Now().UTC()
		for _, res := range results {
			if res.Status == string(product.StatusError) {
				state.Errors = append(state.Errors, fmt.Sprintf("%s: %s", filepath.Base(res.File), res.Error))
			}
		}
		if err := SaveState(statePath, state); err != nil {
			return summary, pipeline.Wrap(pipeline.ErrState, "batch", "checkpoint", fmt.Sprintf("after batch %d", idx), err)
		}
		summary.BatchesRun++
	}

	summary.ProcessedFiles = state.ProcessedFileCount
	summary.Errors = state.Errors

	counts, err := ledger.Summary(ctx, state.RunID)
	if err == nil {
		summary.StatusCounts = counts
	}

	if summary.Interrupted {
		o.log.Warn("run interrupted; checkpoint retained",
			"run_id", state.RunID, "last_completed_batch", state.LastCompletedBatchIndex)
		return summary, ctx.Err()
	}

	if o.cfg.Options.TrackUnmapped {
		// The ledger holds each batch's tally deltas exactly once, so
		// replaying it yields correct totals whether or not the run resumed.
		acc := unmapped.NewAccumulator()
		if err := ledger.LoadTallies(ctx, state.RunID, acc); err != nil {
			return summary, pipeline.Wrap(pipeline.ErrState, "batch", "ledger", "replay unmapped tallies", err)
		}
		summary.UnmappedCount = acc.Len()
		active, inactive := unmapped.BuildReports(acc, time.Now().UTC())
		if err := unmapped.WriteReports(o.cfg.Paths.OutputDir, active, inactive); err != nil {
			return summary, pipeline.Wrap(pipeline.ErrState, "batch", "write", "unmapped reports", err)
		}
	}

	o.log.Info("run finished",
		"run_id", state.RunID,
		"files", summary.ProcessedFiles,
		"batches", summary.TotalBatches,
		"errors", len(summary.Errors),
		"unmapped", summary.UnmappedCount)
	return summary, nil
}

// prepareState loads a resumable checkpoint or starts a fresh one. A
// missing, corrupt, or checksum-mismatched state file is a warning, never an
// error: the run starts over from batch zero.
func (o *Orchestrator) prepareState(fresh bool, statePath, checksum string, totalFiles, totalBatches int) (*State, int) {
	if fresh {
		o.log.Info("ignoring any existing checkpoint; starting fresh")
	} else {
		state, err := LoadState(statePath)
		switch {
		case err != nil && errors.Is(err, fs.ErrNotExist):
			// No checkpoint; normal first run.
		case err != nil:
			o.log.Warn("checkpoint unreadable; starting fresh", "error", err)
		case state.ConfigChecksum != checksum:
			o.log.Warn("configuration changed since checkpoint; starting fresh",
				"checkpoint_checksum", state.ConfigChecksum, "current_checksum", checksum)
		case state.TotalFileCount != totalFiles:
			o.log.Warn("input file set changed since checkpoint; starting fresh",
				"checkpoint_files", state.TotalFileCount, "current_files", totalFiles)
		default:
			o.log.Info("resuming from checkpoint",
				"run_id", state.RunID, "last_completed_batch", state.LastCompletedBatchIndex)
			return state, state.LastCompletedBatchIndex + 1
		}
	}

	now := time.Now().UTC()
	return &State{
		RunID:                   uuid.NewString(),
		StartedAt:               now,
		LastUpdatedAt:           now,
		LastCompletedBatchIndex: -1,
		TotalBatches:            totalBatches,
		TotalFileCount:          totalFiles,
		ConfigChecksum:          checksum,
	}, 0
}

func (o *Orchestrator) buildEngines(workers int) ([]*engine.Engine, error) {
	if workers < 1 {
		workers = 1
	}
	// Every worker builds its own indexes and caches. Duplicated memory and
	// build time buy a lock-free matching hot path.
	engines := make([]*engine.Engine, workers)
	for i := range engines {
		eng, err := engine.New(o.cfg, o.log)
		if err != nil {
			return nil, err
		}
		engines[i] = eng
	}
	return engines, nil
}

// processBatch fans the batch's files out over the worker engines. Per-file
// failures, panics included, become error results and never abort the batch.
// The exception is an error tagged fatal (configuration, reference data, or
// run state): that aborts the whole run, because every remaining file would
// fail the same way.
func (o *Orchestrator) processBatch(ctx context.Context, engines []*engine.Engine, batchIndex int, files []string) ([]engine.FileOutcome, []runlog.FileResult, *unmapped.Accumulator, error) {
	var (
		mu       sync.Mutex
		outcomes []engine.FileOutcome
		results  []runlog.FileResult
	)
	// A nil accumulator disables tracking inside the normalizer.
	accs := make([]*unmapped.Accumulator, len(engines))
	if o.cfg.Options.TrackUnmapped {
		for i := range accs {
			accs[i] = unmapped.NewAccumulator()
		}
	}

	jobs := make(chan string)
	group, gctx := errgroup.WithContext(ctx)
	for i, eng := range engines {
		i, eng := i, eng
		group.Go(func() error {
			for path := range jobs {
				outcome, err := safeProcess(ctx, eng, path, accs[i])
				if err != nil {
					if ctx.Err() != nil {
						continue
					}
					mu.Lock()
					ferr := o.recordFileFailure(batchIndex, path, err, &results)
					mu.Unlock()
					if ferr != nil {
						return ferr
					}
					continue
				}
				mu.Lock()
				outcomes = append(outcomes, outcome)
				results = append(results, runlog.FileResult{
					File:       path,
					BatchIndex: batchIndex,
					Status:     string(fileStatus(outcome)),
					Products:   len(outcome.Results),
				})
				mu.Unlock()
			}
			return nil
		})
	}

feed:
	for _, path := range files {
		select {
		case jobs <- path:
		case <-gctx.Done():
			break feed
		}
	}
	close(jobs)
	err := group.Wait()

	batchAcc := unmapped.NewAccumulator()
	for _, acc := range accs {
		if acc != nil {
			batchAcc.Merge(acc)
		}
	}

	// Deterministic output and ledger ordering regardless of worker timing.
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].File < outcomes[j].File })
	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })
	return outcomes, results, batchAcc, err
}

// recordFileFailure disposes of one file's processing error. An error tagged
// fatal is handed back so the run aborts; anything else is logged and turned
// into an error result for the ledger. Callers must hold mu.
func (o *Orchestrator) recordFileFailure(batchIndex int, path string, err error, results *[]runlog.FileResult) error {
	if pipeline.Fatal(err) {
		return err
	}
	o.log.Error("file failed", "file", path, "error", err)
	*results = append(*results, runlog.FileResult{
		File:       path,
		BatchIndex: batchIndex,
		Status:     string(product.StatusError),
		Error:      err.Error(),
	})
	return nil
}

func safeProcess(ctx context.Context, eng *engine.Engine, path string, acc *unmapped.Accumulator) (outcome engine.FileOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing %s: %v", path, r)
		}
	}()
	return eng.ProcessFile(ctx, path, acc)
}

// fileStatus aggregates a file's product statuses into one ledger row:
// the worst status wins.
func fileStatus(outcome engine.FileOutcome) product.Status {
	rank := map[product.Status]int{
		product.StatusSuccess:     0,
		product.StatusNeedsReview: 1,
		product.StatusIncomplete:  2,
		product.StatusError:       3,
	}
	worst := product.StatusSuccess
	for _, res := range outcome.Results {
		if rank[res.Status] > rank[worst] {
			worst = res.Status
		}
	}
	return worst
}

func (o *Orchestrator) dryRun(ctx context.Context, files []string) (*Summary, error) {
	eng, err := engine.New(o.cfg, o.log)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalFiles:   len(files),
		TotalBatches: (len(files) + o.cfg.Processing.BatchSize - 1) / o.cfg.Processing.BatchSize,
		StatusCounts: map[string]int{},
	}

	outcome, err := eng.ProcessFile(ctx, files[0], nil)
	if err != nil {
		return summary, err
	}
	summary.ProcessedFiles = 1
	for _, res := range outcome.Results {
		summary.StatusCounts[string(res.Status)]++
	}
	o.log.Info("dry run complete; no output written",
		"sample_file", filepath.Base(files[0]), "products", len(outcome.Results))
	return summary, nil
}

func listInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrInputData, "batch", "scan", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	if len(files) == 0 {
		return nil, pipeline.Wrap(pipeline.ErrInputData, "batch", "scan",
			fmt.Sprintf("no .json input files in %s", dir), nil)
	}
	sort.Strings(files)
	return files, nil
}
