// Package ledger persists run history in SQLite. Every batch run and every
// item outcome is recorded so past failures stay inspectable after the
// terminal output is gone.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; the database is disposable history, so a mismatch asks the user to
// delete it rather than migrating.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible
// release.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Item statuses recorded against a run.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusAborted   = "aborted"
)

// Store manages run-history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// RunRecord is one batch run.
type RunRecord struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Finished   bool
	ItemCount  int
	Succeeded  int
	Failed     int
}

// ItemRecord is one item outcome within a run.
type ItemRecord struct {
	SourcePath string
	Status     string
	Stage      string
	Duration   time.Duration
	Error      string
	RecordedAt time.Time
}

// Open initializes or connects to the history database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
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

// Path returns the database location.
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
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// BeginRun records the start of a batch and returns the run id.
func (s *Store) BeginRun(ctx context.Context, itemCount int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (started_at, item_count) VALUES (?, ?)",
		time.Now().UTC().Format(time.RFC3339Nano), itemCount)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// FinishRun records the final counters for a run.
func (s *Store) FinishRun(ctx context.Context, runID int64, succeeded, failed int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, succeeded = ?, failed = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339Nano), succeeded, failed, runID)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", runID, err)
	}
	return nil
}

// RecordItem stores one item outcome against a run.
func (s *Store) RecordItem(ctx context.Context, runID int64, record ItemRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (run_id, source_path, status, stage, duration_ms, error, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID,
		record.SourcePath,
		record.Status,
		nullableString(record.Stage),
		record.Duration.Milliseconds(),
		nullableString(record.Error),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record item %s: %w", record.SourcePath, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, item_count, succeeded, failed
         FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var started string
		var finished sql.NullString
		if err := rows.Scan(&run.ID, &started, &finished, &run.ItemCount, &run.Succeeded, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished.Valid {
			run.Finished = true
			run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunItems returns the item outcomes for a run in recording order.
func (s *Store) RunItems(ctx context.Context, runID int64) ([]ItemRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_path, status, stage, duration_ms, error, recorded_at
         FROM items WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query items for run %d: %w", runID, err)
	}
	defer rows.Close()

	var items []ItemRecord
	for rows.Next() {
		var item ItemRecord
		var stage, errText sql.NullString
		var durationMS int64
		var recorded string
		if err := rows.Scan(&item.SourcePath, &item.Status, &stage, &durationMS, &errText, &recorded); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Stage = stage.String
		item.Error = errText.String
		item.Duration = time.Duration(durationMS) * time.Millisecond
		item.RecordedAt, _ = time.Parse(time.RFC3339Nano, recorded)
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
