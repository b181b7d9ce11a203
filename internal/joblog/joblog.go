// Package joblog writes one append-only log file per job, recording each
// execution attempt and its outcome for human inspection.
package joblog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Writer appends timestamped lines to per-job log files under Dir.
type Writer struct {
	Dir string
}

// New returns a Writer rooted at dir.
func New(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Path returns the log file path for a job id.
func (w *Writer) Path(jobID string) string {
	return filepath.Join(w.Dir, fmt.Sprintf("job_%s.log", jobID))
}

// Append writes a single timestamped line to the job's log file, creating
// the directory and file as needed. Failures here must never abort job
// processing; callers log and continue.
func (w *Writer) Append(jobID, text string) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}

	f, err := os.OpenFile(w.Path(jobID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open job log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s\n", time.Now().UTC().Format(time.RFC3339), text)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append job log: %w", err)
	}
	return nil
}

// Read returns the full contents of a job's log file.
func (w *Writer) Read(jobID string) ([]byte, error) {
	return os.ReadFile(w.Path(jobID))
}
