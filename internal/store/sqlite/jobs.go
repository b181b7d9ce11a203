package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"queuectl/internal/backoff"
	"queuectl/internal/store"
)

const jobColumns = "id, command, state, attempts, max_retries, priority, timeout, run_at, created_at, updated_at, last_error, worker_id"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*store.Job, error) {
	var (
		j          store.Job
		maxRetries int
		runAt      sql.NullInt64
		createdAt  int64
		updatedAt  int64
		lastError  sql.NullString
		workerID   sql.NullString
	)
	err := row.Scan(&j.ID, &j.Command, &j.State, &j.Attempts, &maxRetries,
		&j.Priority, &j.Timeout, &runAt, &createdAt, &updatedAt, &lastError, &workerID)
	if err != nil {
		return nil, err
	}
	j.MaxRetries = &maxRetries
	j.CreatedAt = fromMillis(createdAt)
	j.UpdatedAt = fromMillis(updatedAt)
	if runAt.Valid {
		t := fromMillis(runAt.Int64)
		j.RunAt = &t
	}
	if lastError.Valid {
		j.LastError = &lastError.String
	}
	if workerID.Valid {
		j.WorkerID = &workerID.String
	}
	return &j, nil
}

// Enqueue inserts a new job row, applying defaults for omitted fields.
func (s *Store) Enqueue(ctx context.Context, job *store.Job) error {
	if job == nil || job.ID == "" || job.Command == "" {
		return store.ErrInvalidJob
	}

	if job.State == "" {
		job.State = store.JobStatePending
	}
	if job.Timeout <= 0 {
		job.Timeout = store.DefaultTimeout
	}
	if job.MaxRetries == nil {
		// Only an omitted value takes the config default; an explicit
		// zero means the job is dead on its first failure.
		n := s.defaultMaxRetries(ctx)
		job.MaxRetries = &n
	} else if *job.MaxRetries < 0 {
		return store.ErrInvalidJob
	}

	ts := now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = ts
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = ts
	}

	var runAt any
	if job.RunAt != nil {
		runAt = toMillis(*job.RunAt)
	}
	var lastError any
	if job.LastError != nil {
		lastError = *job.LastError
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`, job.ID, job.Command, job.State, job.Attempts, *job.MaxRetries, job.Priority,
		job.Timeout, runAt, toMillis(job.CreatedAt), toMillis(job.UpdatedAt), lastError)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("%w: %s", store.ErrDuplicateID, job.ID)
		}
		return mapErr(err)
	}
	return nil
}

func (s *Store) defaultMaxRetries(ctx context.Context) int {
	v, err := s.GetConfig(ctx, store.ConfigDefaultMaxRetries)
	if err != nil {
		return store.DefaultMaxRetries
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return store.DefaultMaxRetries
	}
	return n
}

func backoffBase(row rowScanner) int {
	var v string
	if err := row.Scan(&v); err != nil {
		return store.DefaultBackoffBase
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return store.DefaultBackoffBase
	}
	return n
}

// ClaimNext atomically reserves one eligible job for workerID. The select
// and the guarded update run inside a single immediate transaction, so
// under any number of concurrent callers a job is handed to at most one.
// Returns (nil, nil) when no job is eligible.
func (s *Store) ClaimNext(ctx context.Context, workerID string) (*store.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapErr(err)
	}
	defer tx.Rollback()

	ts := now()
	row := tx.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE state = ? AND (run_at IS NULL OR run_at <= ?)
		ORDER BY priority DESC, created_at ASC
		LIMIT 1
	`, store.JobStatePending, toMillis(ts))

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapErr(err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET state = ?, worker_id = ?, updated_at = ?
		WHERE id = ? AND state = ?
	`, store.JobStateProcessing, workerID, toMillis(ts), job.ID, store.JobStatePending)
	if err != nil {
		return nil, mapErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, mapErr(err)
	}
	if affected == 0 {
		// Another claimer won the race between our select and update.
		return nil, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, mapErr(err)
	}

	job.State = store.JobStateProcessing
	job.WorkerID = &workerID
	job.UpdatedAt = ts
	return job, nil
}

// MarkSucceeded transitions processing -> completed and clears worker_id.
func (s *Store) MarkSucceeded(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET state = ?, updated_at = ?, worker_id = NULL
		WHERE id = ?
	`, store.JobStateCompleted, toMillis(now()), id)
	if err != nil {
		return mapErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", store.ErrJobNotFound, id)
	}
	return nil
}

// MarkFailed records a failed attempt and applies the retry/backoff policy.
// The read of the current attempt count and the resulting transition commit
// as one transaction.
func (s *Store) MarkFailed(ctx context.Context, id, errMsg string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	defer tx.Rollback()

	var attempts, maxRetries int
	err = tx.QueryRowContext(ctx,
		`SELECT attempts, max_retries FROM jobs WHERE id = ?`, id).
		Scan(&attempts, &maxRetries)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", store.ErrJobNotFound, id)
		}
		return mapErr(err)
	}

	base := backoffBase(
		tx.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, store.ConfigBackoffBase))

	ts := now()
	d := backoff.Decide(attempts, maxRetries, base, ts)

	var runAt any
	if d.RunAt != nil {
		runAt = toMillis(*d.RunAt)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE jobs
		SET state = ?, attempts = ?, last_error = ?, run_at = ?, updated_at = ?, worker_id = NULL
		WHERE id = ?
	`, d.State, d.Attempts, errMsg, runAt, toMillis(ts), id)
	if err != nil {
		return mapErr(err)
	}

	return mapErr(tx.Commit())
}

// RetryDead moves a dead job back to pending for another round of
// processing, resetting its attempt counter and schedule. Only jobs in the
// dead state are affected; the return value reports whether one was.
func (s *Store) RetryDead(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET state = ?, attempts = 0, run_at = NULL, last_error = NULL, updated_at = ?
		WHERE id = ? AND state = ?
	`, store.JobStatePending, toMillis(now()), id, store.JobStateDead)
	if err != nil {
		return false, mapErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, mapErr(err)
	}
	return affected > 0, nil
}

// PurgeCompleted deletes all completed jobs and returns how many.
func (s *Store) PurgeCompleted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE state = ?`, store.JobStateCompleted)
	if err != nil {
		return 0, mapErr(err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, mapErr(err)
	}
	return deleted, nil
}

// GetJob returns a job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*store.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrJobNotFound, id)
		}
		return nil, mapErr(err)
	}
	return job, nil
}

// ListJobs returns jobs ordered by creation time, optionally filtered by
// state (empty state means all).
func (s *Store) ListJobs(ctx context.Context, state store.JobState) ([]store.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at ASC`
	args := []any{}
	if state != "" {
		query = `SELECT ` + jobColumns + ` FROM jobs WHERE state = ? ORDER BY created_at ASC`
		args = append(args, state)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var jobs []store.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, mapErr(rows.Err())
}

// CountsByState returns the number of jobs per state.
func (s *Store) CountsByState(ctx context.Context) (map[store.JobState]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM jobs GROUP BY state`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	counts := make(map[store.JobState]int64)
	for rows.Next() {
		var state store.JobState
		var n int64
		if err := rows.Scan(&state, &n); err != nil {
			return nil, mapErr(err)
		}
		counts[state] = n
	}
	return counts, mapErr(rows.Err())
}

// Metrics aggregates queue totals. Failed counts pending jobs that have
// already burned at least one attempt, i.e. are waiting on a retry. The
// average duration is wall-clock updated_at - created_at over completed
// jobs, nil when none have completed.
func (s *Store) Metrics(ctx context.Context) (*store.Metrics, error) {
	m := &store.Metrics{}
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE state = ?),
			COUNT(*) FILTER (WHERE state = ? AND attempts > 0),
			COUNT(*) FILTER (WHERE state = ?),
			AVG(CASE WHEN state = ? THEN (updated_at - created_at) / 1000.0 END)
		FROM jobs
	`, store.JobStateCompleted, store.JobStatePending, store.JobStateDead, store.JobStateCompleted).
		Scan(&m.Total, &m.Completed, &m.Failed, &m.Dead, &avg)
	if err != nil {
		return nil, mapErr(err)
	}
	if avg.Valid {
		m.AvgDuration = &avg.Float64
	}
	return m, nil
}
