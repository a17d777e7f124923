// Package runlog persists per-run processing state in SQLite so interrupted
// batch runs can resume without double counting. The checkpoint file records
// which batch finished last; the run ledger records what each finished batch
// produced, so unmapped-ingredient tallies and per-file outcomes survive a
// restart.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"

	"labelclean/internal/unmapped"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current ledger schema version. Bump this when the
// schema changes; a ledger with a different version is rejected so a stale
// database never silently corrupts a resumed run.
const schemaVersion = 1

// ErrSchemaMismatch indicates the ledger schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrChecksumMismatch indicates a resumed run's configuration differs from
// the configuration the ledger was written with.
var ErrChecksumMismatch = errors.New("config checksum mismatch")

// FileResult is the recorded outcome for one processed input file.
type FileResult struct {
	File       string
	BatchIndex int
	Status     string
	Products   int
	Error      string
}

// Store is the SQLite-backed run ledger.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the run ledger database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start fresh)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// EnsureRun registers a run or, when the run already exists, verifies that
// the stored configuration checksum matches. A mismatch means the input
// layout or matching parameters changed since the checkpoint was written, so
// resuming would mix incompatible partial results.
func (s *Store) EnsureRun(ctx context.Context, runID, configChecksum string) error {
	ctx = ensureContext(ctx)
	var stored string
	err := s.db.QueryRowContext(ctx, "SELECT config_checksum FROM runs WHERE run_id = ?", runID).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		now := time.Now().UTC().Format(time.RFC3339Nano)
		return s.execWithoutResultRetry(ctx,
			"INSERT INTO runs (run_id, config_checksum, started_at, updated_at) VALUES (?, ?, ?, ?)",
			runID, configChecksum, now, now)
	case err != nil:
		return fmt.Errorf("look up run: %w", err)
	}
	if stored != configChecksum {
		return fmt.Errorf("%w: ledger has %s, current config is %s", ErrChecksumMismatch, stored, configChecksum)
	}
	return nil
}

// RecordBatch stores one finished batch atomically: every file outcome plus
// the batch's unmapped-ingredient deltas. Either the whole batch lands in the
// ledger or none of it does, which keeps replay-on-resume exact.
func (s *Store) RecordBatch(ctx context.Context, runID string, results []FileResult, tallies []unmapped.Entry) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin batch tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		// A crash after commit but before the checkpoint write causes the
		// batch to be reprocessed on resume. Re-recording replaces the file
		// rows but must not add the tally deltas a second time.
		alreadyRecorded := false
		if len(results) > 0 {
			var n int
			if err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM file_results WHERE run_id = ? AND batch_index = ?",
				runID, results[0].BatchIndex).Scan(&n); err != nil {
				return fmt.Errorf("check batch recorded: %w", err)
			}
			alreadyRecorded = n > 0
		}

		for _, res := range results {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO file_results (run_id, file, batch_index, status, products, error)
                 VALUES (?, ?, ?, ?, ?, ?)
                 ON CONFLICT(run_id, file) DO UPDATE SET
                     batch_index = excluded.batch_index,
                     status = excluded.status,
                     products = excluded.products,
                     error = excluded.error`,
				runID, res.File, res.BatchIndex, res.Status, res.Products, nullableString(res.Error),
			); err != nil {
				return fmt.Errorf("record file result: %w", err)
			}
		}

		if !alreadyRecorded {
			for _, entry := range tallies {
				variations, err := json.Marshal(entry.VariationsTried)
				if err != nil {
					return fmt.Errorf("marshal variations: %w", err)
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO unmapped_tallies (run_id, name, active, frequency, variations_json)
                 VALUES (?, ?, ?, ?, ?)
                 ON CONFLICT(run_id, name) DO UPDATE SET
                     frequency = frequency + excluded.frequency`,
					runID, entry.Name, boolToInt(entry.Active), entry.Frequency, string(variations),
				); err != nil {
					return fmt.Errorf("record unmapped tally: %w", err)
				}
			}
		}

		now := time.Now().UTC().Format(time.RFC3339Nano)
		if _, err := tx.ExecContext(ctx, "UPDATE runs SET updated_at = ? WHERE run_id = ?", now, runID); err != nil {
			return fmt.Errorf("touch run: %w", err)
		}
		return tx.Commit()
	})
}

// LoadTallies replays a run's persisted unmapped-ingredient tallies into acc.
// Called on resume so the final reports count completed batches exactly once.
func (s *Store) LoadTallies(ctx context.Context, runID string, acc *unmapped.Accumulator) error {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, active, frequency, variations_json FROM unmapped_tallies WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("load tallies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			name           string
			active         int
			frequency      int
			variationsJSON sql.NullString
		)
		if err := rows.Scan(&name, &active, &frequency, &variationsJSON); err != nil {
			return fmt.Errorf("scan tally: %w", err)
		}
		var variations []string
		if variationsJSON.Valid && variationsJSON.String != "" {
			if err := json.Unmarshal([]byte(variationsJSON.String), &variations); err != nil {
				return fmt.Errorf("decode variations for %q: %w", name, err)
			}
		}
		acc.AddCount(name, active == 1, variations, frequency)
	}
	return rows.Err()
}

// Summary counts recorded file outcomes per status for a run.
func (s *Store) Summary(ctx context.Context, runID string) (map[string]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM file_results WHERE run_id = ? GROUP BY status", runID)
	if err != nil {
		return nil, fmt.Errorf("summarize run: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summary := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summary[status] = count
	}
	return summary, rows.Err()
}

// CompletedFiles returns the set of files a run has already recorded,
// regardless of outcome.
func (s *Store) CompletedFiles(ctx context.Context, runID string) (map[string]bool, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT file FROM file_results WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("list completed files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	files := make(map[string]bool)
	for rows.Next() {
		var file string
		if err := rows.Scan(&file); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files[file] = true
	}
	return files, rows.Err()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
