package store

import "errors"

var (
	// ErrInvalidJob is returned when a submitted job misses its id or command.
	ErrInvalidJob = errors.New("job must include id and command")

	// ErrDuplicateID is returned when a job with the same id already exists.
	ErrDuplicateID = errors.New("job id already exists")

	// ErrJobNotFound is returned by transitions on a nonexistent job.
	ErrJobNotFound = errors.New("job not found")

	// ErrStoreBusy signals a transient failure to acquire the store's
	// exclusive write section. Callers retry on their next iteration.
	ErrStoreBusy = errors.New("store busy, retry")
)
