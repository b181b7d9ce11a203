// Package store contains the database layer for queuectl.
package store

import "time"

// JobState represents the lifecycle state of a job.
type JobState string

const (
	JobStatePending    JobState = "pending"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateDead       JobState = "dead"
)

// ValidState reports whether s is one of the known job states.
func ValidState(s JobState) bool {
	switch s {
	case JobStatePending, JobStateProcessing, JobStateCompleted, JobStateDead:
		return true
	}
	return false
}

// Job is the unit of work. The ID is caller-supplied and unique; the
// command is an opaque shell string the engine never interprets.
type Job struct {
	ID       string   `json:"id"`
	Command  string   `json:"command"`
	State    JobState `json:"state"`
	Attempts int      `json:"attempts"`
	// MaxRetries is a pointer so an explicit zero (dead on first failure)
	// is distinguishable from an omitted value, which takes the config
	// default at enqueue time. Always set on rows read back from the store.
	MaxRetries *int       `json:"max_retries,omitempty"`
	Priority   int        `json:"priority"`
	RunAt      *time.Time `json:"run_at,omitempty"` // nil means immediately eligible
	Timeout    int        `json:"timeout"`          // seconds
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastError  *string    `json:"last_error,omitempty"`
	WorkerID   *string    `json:"worker_id,omitempty"`
}

// Metrics summarizes the queue for the metrics command and the dashboard.
// AvgDuration is nil until at least one job has completed.
type Metrics struct {
	Total       int64    `json:"total"`
	Completed   int64    `json:"completed"`
	Failed      int64    `json:"failed"`
	Dead        int64    `json:"dead"`
	AvgDuration *float64 `json:"avg_duration,omitempty"` // seconds, updated_at - created_at over completed jobs
}

// Config keys consulted by the store and the backoff policy.
const (
	ConfigBackoffBase       = "backoff_base"
	ConfigDefaultMaxRetries = "default_max_retries"
)

// Defaults applied at enqueue time when the caller omits a field.
const (
	DefaultTimeout     = 30
	DefaultMaxRetries  = 3
	DefaultBackoffBase = 2
)
