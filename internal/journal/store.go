package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mediamirror/internal/config"
)

// Store persists run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the journal in the configured state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JournalPath())
}

// OpenPath connects to the journal at path, creating it when missing.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Task outcomes arrive from every worker.
	db.SetMaxOpenConns(1)

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

	store := &Store{db: db, path: filepath.Clean(path)}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartRun inserts run with status running.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("start run: id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_dir, output_dir, backend, dry_run, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.SourceDir,
		nullableString(run.OutputDir),
		nullableString(run.Backend),
		boolToInt(run.DryRun),
		RunRunning,
		formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final status and counts of a run.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, counts Counts, runErr error) error {
	var message any
	if runErr != nil {
		message = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, directories = ?, copied = ?, encoded = ?,
            subtitles = ?, skipped = ?, failed = ?, bytes_copied = ?, error_message = ?
         WHERE id = ?`,
		status,
		formatTime(time.Now()),
		counts.Directories,
		counts.Copied,
		counts.Encoded,
		counts.Subtitles,
		counts.Skipped,
		counts.Failed,
		counts.BytesCopied,
		message,
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: not found", id)
	}
	return nil
}

// RecordTask appends one task outcome to a run.
func (s *Store) RecordTask(ctx context.Context, task Task) error {
	if task.FinishedAt.IsZero() {
		task.FinishedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (run_id, label, kind, output, status, error_message, duration_ms, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.RunID,
		task.Label,
		task.Kind,
		nullableString(task.Output),
		task.Status,
		nullableString(task.Error),
		task.Duration.Milliseconds(),
		formatTime(task.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

const runColumns = "id, source_dir, output_dir, backend, dry_run, status, started_at, finished_at, directories, copied, encoded, subtitles, skipped, failed, bytes_copied, error_message"

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches one run. A missing run returns (nil, nil).
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Tasks lists the recorded tasks of a run in completion order. When
// onlyFailed is set, successful and skipped tasks are omitted.
func (s *Store) Tasks(ctx context.Context, runID string, onlyFailed bool) ([]Task, error) {
	query := "SELECT run_id, label, kind, output, status, error_message, duration_ms, finished_at FROM tasks WHERE run_id = ?"
	args := []any{runID}
	if onlyFailed {
		query += " AND status = ?"
		args = append(args, TaskFailed)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var (
			task       Task
			output     sql.NullString
			status     string
			message    sql.NullString
			durationMS int64
			finished   string
		)
		if err := rows.Scan(&task.RunID, &task.Label, &task.Kind, &output, &status, &message, &durationMS, &finished); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		task.Output = output.String
		task.Status = TaskStatus(status)
		task.Error = message.String
		task.Duration = time.Duration(durationMS) * time.Millisecond
		task.FinishedAt = parseTime(finished)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
