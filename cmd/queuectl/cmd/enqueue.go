package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"queuectl/internal/store"

	"github.com/spf13/cobra"
)

// submitRequest is the job submission schema: a JSON document with
// mandatory id and command. A relative delay is resolved into an absolute
// run_at here; the store only ever sees absolute times.
type submitRequest struct {
	ID       string `json:"id"`
	Command  string `json:"command"`
	Priority int    `json:"priority,omitempty"`
	Timeout  int    `json:"timeout,omitempty"`
	// A pointer keeps "max_retries": 0 distinct from leaving the key out,
	// since only a missing key takes the configured default.
	MaxRetries *int   `json:"max_retries,omitempty"`
	RunAt      string `json:"run_at,omitempty"` // RFC 3339
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [job-json|@file]",
	Short: "Enqueue a job",
	Long: `Submit a job to the queue. The job can be given as a JSON document
(inline or @file) or assembled from flags; flags override JSON fields.

Examples:
  queuectl enqueue --id j1 --command "echo hello"
  queuectl enqueue --id backup --command "tar czf /tmp/b.tgz /etc" --delay 60 --timeout 300
  queuectl enqueue '{"id":"j2","command":"exit 1","max_retries":2}'
  queuectl enqueue @job.json --priority 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req submitRequest
		if len(args) == 1 {
			if err := parseJobArg(args[0], &req); err != nil {
				return err
			}
		}

		flags := cmd.Flags()
		if flags.Changed("id") {
			req.ID, _ = flags.GetString("id")
		}
		if flags.Changed("command") {
			req.Command, _ = flags.GetString("command")
		}
		if flags.Changed("priority") {
			req.Priority, _ = flags.GetInt("priority")
		}
		if flags.Changed("timeout") {
			req.Timeout, _ = flags.GetInt("timeout")
		}
		if flags.Changed("max-retries") {
			n, _ := flags.GetInt("max-retries")
			req.MaxRetries = &n
		}
		if flags.Changed("run-at") {
			req.RunAt, _ = flags.GetString("run-at")
		}

		if req.ID == "" || req.Command == "" {
			return fmt.Errorf("job must include id and command")
		}

		job := &store.Job{
			ID:         req.ID,
			Command:    req.Command,
			Priority:   req.Priority,
			Timeout:    req.Timeout,
			MaxRetries: req.MaxRetries,
		}

		// A relative delay resolves to an absolute time first; an explicit
		// run_at then overrides it.
		if delay, _ := flags.GetInt("delay"); delay > 0 {
			t := time.Now().UTC().Add(time.Duration(delay) * time.Second)
			job.RunAt = &t
		}
		if req.RunAt != "" {
			t, err := time.Parse(time.RFC3339, req.RunAt)
			if err != nil {
				return fmt.Errorf("invalid run-at %q: %w", req.RunAt, err)
			}
			job.RunAt = &t
		}

		st, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Enqueue(cmd.Context(), job); err != nil {
			return fmt.Errorf("failed to enqueue job: %w", err)
		}

		cmd.Printf("Enqueued job %s (command: %s)\n", job.ID, job.Command)
		return nil
	},
}

// parseJobArg accepts inline JSON or an @-prefixed file path.
func parseJobArg(arg string, req *submitRequest) error {
	data := []byte(arg)
	if len(arg) > 0 && arg[0] == '@' {
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return fmt.Errorf("failed to read job file: %w", err)
		}
		data = b
	}
	if err := json.Unmarshal(data, req); err != nil {
		return fmt.Errorf("invalid job JSON: %w", err)
	}
	return nil
}

func init() {
	flags := enqueueCmd.Flags()
	flags.String("id", "", "unique job id")
	flags.String("command", "", "shell command to execute")
	flags.Int("delay", 0, "delay in seconds before the job becomes eligible")
	flags.String("run-at", "", "absolute RFC 3339 time the job becomes eligible")
	flags.Int("priority", 0, "job priority (higher claims first)")
	flags.Int("timeout", 0, "job timeout in seconds (default 30)")
	flags.Int("max-retries", 0, "attempts allowed before the job is declared dead (default from default_max_retries config)")

	rootCmd.AddCommand(enqueueCmd)
}
