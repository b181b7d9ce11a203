package store

import "context"

// Queue defines the operations the execution engine and CLI need from the
// job store. Implementations must make ClaimNext atomic: a given job is
// returned to at most one concurrent caller.
type Queue interface {
	// Enqueue inserts a new job, applying defaults for omitted fields.
	// Returns ErrInvalidJob or ErrDuplicateID on bad submissions.
	Enqueue(ctx context.Context, job *Job) error

	// ClaimNext reserves the highest-priority eligible pending job for
	// workerID and returns it. Returns (nil, nil) when nothing is eligible.
	ClaimNext(ctx context.Context, workerID string) (*Job, error)

	// MarkSucceeded transitions processing -> completed.
	MarkSucceeded(ctx context.Context, id string) error

	// MarkFailed records a failed attempt and applies the retry/backoff
	// policy: back to pending with a future run_at, or dead once the
	// retry budget is exhausted.
	MarkFailed(ctx context.Context, id, errMsg string) error

	// RetryDead moves a dead job back to pending with a reset attempt
	// counter. Reports whether a row was actually affected.
	RetryDead(ctx context.Context, id string) (bool, error)

	// PurgeCompleted deletes all completed jobs and returns the count.
	PurgeCompleted(ctx context.Context) (int64, error)
}

// Reader exposes the read-only queries used by status, list, metrics and
// the dashboard.
type Reader interface {
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, state JobState) ([]Job, error)
	CountsByState(ctx context.Context) (map[JobState]int64, error)
	Metrics(ctx context.Context) (*Metrics, error)
}

// ConfigStore is the flat key/value store of engine tunables, with
// last-write-wins semantics.
type ConfigStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// Store is the full surface backed by a single database.
type Store interface {
	Queue
	Reader
	ConfigStore
	Close() error
}
