// Package jobstore persists batch jobs in SQLite
package jobstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"match-highlights/application/batch"
	"match-highlights/domain/distribution"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements batch.JobStore on a SQLite database
type Store struct {
	conn *sql.DB
	log  logrus.FieldLogger
	now  func() time.Time
}

// Open opens or creates the database at path and applies migrations
func Open(path string, log logrus.FieldLogger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Store{conn: conn, log: log.WithField("component", "jobstore"), now: time.Now}

	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		s.log.WithField("name", name).Info("applied migration")
	}

	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var applied int
	err := s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// MarkInterrupted fails every job that never reached a terminal state.
// Only the process owning the workers may call it, at startup.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = 'interrupted by restart', updated_at = ?
		 WHERE status IN (?, ?, ?)`,
		batch.StatusFailed, formatTime(s.now()),
		batch.StatusReceived, batch.StatusAcknowledged, batch.StatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to mark interrupted jobs: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.WithField("jobs", n).Warn("marked interrupted jobs as failed")
	}
	return n, nil
}

func (s *Store) Create(ctx context.Context, job *batch.Job) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO jobs (id, caller_match_id, match_id, status, error, total, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.CallerMatchID, job.MatchID, job.Status, job.Error, job.Total,
		formatTime(job.CreatedAt), formatTime(job.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status batch.Status, errMsg string) error {
	res, err := s.conn.ExecContext(ctx,
		"UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?",
		status, errMsg, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	return requireRow(res, id)
}

func (s *Store) AppendResult(ctx context.Context, id string, result batch.ActionResult) error {
	var clip sql.NullString
	if result.Clip != nil {
		b, err := json.Marshal(result.Clip)
		if err != nil {
			return fmt.Errorf("failed to encode clip: %w", err)
		}
		clip = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE jobs SET updated_at = ? WHERE id = ?", formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("failed to touch job %s: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO job_results (job_id, idx, timestamp_in_game, success, error_kind, error, clip)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, result.Index, result.TimestampInGame, boolToInt(result.Success), result.ErrorKind, result.Error, clip)
	if err != nil {
		return fmt.Errorf("failed to insert result %d of job %s: %w", result.Index, id, err)
	}

	return tx.Commit()
}

func (s *Store) Get(ctx context.Context, id string) (*batch.Job, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, caller_match_id, match_id, status, error, total, created_at, updated_at
		FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", batch.ErrJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}

	if job.Results, err = s.results(ctx, id); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]*batch.Job, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, caller_match_id, match_id, status, error, total, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*batch.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, job := range jobs {
		if job.Results, err = s.results(ctx, job.ID); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func (s *Store) results(ctx context.Context, id string) ([]batch.ActionResult, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT idx, timestamp_in_game, success, error_kind, error, clip
		FROM job_results WHERE job_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load results of job %s: %w", id, err)
	}
	defer rows.Close()

	var results []batch.ActionResult
	for rows.Next() {
		var (
			r       batch.ActionResult
			success int
			clip    sql.NullString
		)
		if err := rows.Scan(&r.Index, &r.TimestampInGame, &success, &r.ErrorKind, &r.Error, &clip); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Success = success == 1
		if clip.Valid {
			r.Clip = &distribution.Clip{}
			if err := json.Unmarshal([]byte(clip.String), r.Clip); err != nil {
				return nil, fmt.Errorf("failed to decode clip of result %d: %w", r.Index, err)
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*batch.Job, error) {
	var (
		job                  batch.Job
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&job.ID, &job.CallerMatchID, &job.MatchID, &status, &job.Error, &job.Total, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	job.Status = batch.Status(status)
	job.CreatedAt = parseTime(createdAt)
	job.UpdatedAt = parseTime(updatedAt)
	return &job, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", batch.ErrJobNotFound, id)
	}
	return nil
}

// timeLayout keeps a fixed width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ batch.JobStore = (*Store)(nil)
