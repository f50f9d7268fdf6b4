// Package state records import-run history in a local SQLite database.
// It tracks runs and the per-file results inside each run.
package state

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver (pure Go)
)

// RunStatus describes a run's lifecycle state.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// FileStatus describes the outcome of one file within a run.
type FileStatus string

const (
	FileStatusSuccess FileStatus = "success"
	FileStatusFailed  FileStatus = "failed"
	FileStatusSkipped FileStatus = "skipped"
)

// Run is one import run.
type Run struct {
	ID          string
	Environment string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// FileRun is the result of loading one plan entry.
type FileRun struct {
	ID         int64
	RunID      string
	Path       string
	Model      string
	Status     FileStatus
	Rows       int64
	DurationMS int64
	Error      string
}

// Store persists run history in SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewStore creates a state store instance.
// If logger is nil, a discard logger is used.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the SQLite database at path.
// Use ":memory:" for an in-memory database.
func (s *Store) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping state database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the state database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateRun starts a new run record.
func (s *Store) CreateRun(env string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state database not opened")
	}

	run := &Run{
		ID:          uuid.NewString(),
		Environment: env,
		Status:      RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("environment", env))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, environment, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Environment, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *Store) CompleteRun(id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("state database not opened")
	}

	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), now, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, environment, status, started_at, completed_at, error FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs up to limit.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, environment, status, started_at, completed_at, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordFile saves one file result inside a run.
func (s *Store) RecordFile(fr *FileRun) error {
	if s.db == nil {
		return fmt.Errorf("state database not opened")
	}

	res, err := s.db.Exec(
		`INSERT INTO file_runs (run_id, path, model, status, rows, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fr.RunID, fr.Path, fr.Model, string(fr.Status), fr.Rows, fr.DurationMS, fr.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record file run: %w", err)
	}
	fr.ID, _ = res.LastInsertId()
	return nil
}

// ListFileRuns retrieves the file results of a run, in insertion order.
func (s *Store) ListFileRuns(runID string) ([]*FileRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, path, model, status, rows, duration_ms, error
		 FROM file_runs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list file runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*FileRun
	for rows.Next() {
		var fr FileRun
		var status string
		if err := rows.Scan(&fr.ID, &fr.RunID, &fr.Path, &fr.Model, &status,
			&fr.Rows, &fr.DurationMS, &fr.Error); err != nil {
			return nil, fmt.Errorf("failed to scan file run: %w", err)
		}
		fr.Status = FileStatus(status)
		results = append(results, &fr)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var status string
	var completed sql.NullTime
	var errMsg sql.NullString
	if err := row.Scan(&run.ID, &run.Environment, &status, &run.StartedAt, &completed, &errMsg); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return &run, nil
}
