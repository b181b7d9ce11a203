// Package backoff holds the retry/backoff decision applied when a job
// execution fails. It is the single place where retry-vs-dead is decided,
// so an alternate strategy (linear, jitter) can replace Decide without
// touching the store or the worker.
package backoff

import (
	"time"

	"queuectl/internal/store"
)

// Decision is the outcome of a failed attempt: the job's next state, its
// incremented attempt count, and when it becomes eligible again (nil for
// dead jobs, which are never rescheduled).
type Decision struct {
	State    store.JobState
	Attempts int
	RunAt    *time.Time
}

// Decide computes the transition for a job that just failed. The new
// attempt count is attempts+1; once it exceeds maxRetries the job is
// dead, otherwise it returns to pending with an exponential delay of
// base^attempts seconds keyed to the attempt count (base=2 gives 2s,
// 4s, 8s, ... after the 1st, 2nd, 3rd failures).
func Decide(attempts, maxRetries, base int, now time.Time) Decision {
	next := attempts + 1
	if next > maxRetries {
		return Decision{State: store.JobStateDead, Attempts: next}
	}

	delay := time.Duration(pow(base, next)) * time.Second
	runAt := now.Add(delay)
	return Decision{State: store.JobStatePending, Attempts: next, RunAt: &runAt}
}

// pow is integer exponentiation; math.Pow would round-trip through float64.
func pow(base, exp int) int64 {
	result := int64(1)
	for i := 0; i < exp; i++ {
		result *= int64(base)
	}
	return result
}
