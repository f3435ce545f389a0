package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"jobwatch/internal/config"
	"jobwatch/internal/stages"
)

// Store manages snapshot persistence backed by SQLite.
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

// Record is one persisted snapshot row.
type Record struct {
	ID              int64
	SessionID       string
	JobID           string
	Attempt         int
	CurrentStage    stages.ID
	OverallProgress float64
	IsComplete      bool
	Error           string
	Steps           []stages.Step
	CreatedAt       time.Time
}

// JobSummary aggregates the latest state of a watched job.
type JobSummary struct {
	JobID           string
	Snapshots       int
	OverallProgress float64
	IsComplete      bool
	Error           string
	LastSeen        time.Time
}

// Open initializes or connects to the history database at the configured
// state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryDBPath()
	db, err := sql.Open("sqlite", dbPath)
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

	store := &Store{db: db, path: dbPath}
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

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// RecordSnapshot appends one snapshot row for a session.
func (s *Store) RecordSnapshot(ctx context.Context, sessionID, jobID string, attempt int, snap stages.Snapshot) (int64, error) {
	stepsJSON, err := json.Marshal(snap.Steps)
	if err != nil {
		return 0, fmt.Errorf("marshal steps: %w", err)
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO snapshots (
            session_id, job_id, attempt, current_stage,
            overall_progress, is_complete, error, steps_json, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		jobID,
		attempt,
		string(snap.CurrentStage),
		snap.OverallProgress,
		boolToInt(snap.IsComplete),
		nullableString(snap.Error),
		string(stepsJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// JobHistory returns the most recent snapshots for a job, newest first.
// A non-positive limit returns everything.
func (s *Store) JobHistory(ctx context.Context, jobID string, limit int) ([]Record, error) {
	query := `SELECT id, session_id, job_id, attempt, current_stage,
        overall_progress, is_complete, error, steps_json, created_at
        FROM snapshots WHERE job_id = ? ORDER BY id DESC`
	args := []any{jobID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.queryWithRetry(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query job history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// Latest returns the newest snapshot for a job, or nil when the job has
// never been watched.
func (s *Store) Latest(ctx context.Context, jobID string) (*Record, error) {
	records, err := s.JobHistory(ctx, jobID, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Jobs summarizes every job in the store, most recently seen first.
func (s *Store) Jobs(ctx context.Context) ([]JobSummary, error) {
	rows, err := s.queryWithRetry(ctx,
		`SELECT job_id, COUNT(1), MAX(id)
         FROM snapshots GROUP BY job_id`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	type jobRow struct {
		jobID  string
		count  int
		lastID int64
	}
	var jobRows []jobRow
	for rows.Next() {
		var jr jobRow
		if err := rows.Scan(&jr.jobID, &jr.count, &jr.lastID); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		jobRows = append(jobRows, jr)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	_ = rows.Close()

	summaries := make([]JobSummary, 0, len(jobRows))
	for _, jr := range jobRows {
		latest, err := s.latestByRowID(ctx, jr.lastID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, JobSummary{
			JobID:           jr.jobID,
			Snapshots:       jr.count,
			OverallProgress: latest.OverallProgress,
			IsComplete:      latest.IsComplete,
			Error:           latest.Error,
			LastSeen:        latest.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastSeen.After(summaries[j].LastSeen)
	})
	return summaries, nil
}

// Clear removes every stored snapshot and reports how many rows were
// deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM snapshots")
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Prune deletes snapshots older than the retention window and reports how
// many rows were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx, "DELETE FROM snapshots WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) latestByRowID(ctx context.Context, id int64) (*Record, error) {
	rows, err := s.queryWithRetry(ctx,
		`SELECT id, session_id, job_id, attempt, current_stage,
         overall_progress, is_complete, error, steps_json, created_at
         FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query snapshot %d: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("snapshot %d not found", id)
	}
	return &records[0], nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			rec       Record
			stage     string
			complete  int
			errText   sql.NullString
			stepsJSON string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.JobID, &rec.Attempt,
			&stage, &rec.OverallProgress, &complete, &errText, &stepsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		rec.CurrentStage = stages.ID(stage)
		rec.IsComplete = complete != 0
		if errText.Valid {
			rec.Error = errText.String
		}
		if err := json.Unmarshal([]byte(stepsJSON), &rec.Steps); err != nil {
			return nil, fmt.Errorf("decode steps for snapshot %d: %w", rec.ID, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for snapshot %d: %w", rec.ID, err)
		}
		rec.CreatedAt = ts
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return records, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
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

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) queryWithRetry(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ctx = ensureContext(ctx)
	var (
		rows     *sql.Rows
		queryErr error
	)
	if err := retryOnBusy(ctx, func() error {
		rows, queryErr = s.db.QueryContext(ctx, query, args...)
		return queryErr
	}); err != nil {
		return nil, err
	}
	return rows, nil
}
