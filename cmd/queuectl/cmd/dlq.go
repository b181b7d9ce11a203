package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"queuectl/internal/store"

	"github.com/spf13/cobra"
)

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Manage the Dead Letter Queue (DLQ)",
	Long:  `Inspect and retry jobs that have permanently failed after exceeding their retry budget.`,
}

var dlqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dead jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		jobs, err := st.ListJobs(cmd.Context(), store.JobStateDead)
		if err != nil {
			return fmt.Errorf("failed to list dead jobs: %w", err)
		}

		if len(jobs) == 0 {
			cmd.Println("No jobs found in DLQ.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tATTEMPTS\tFAILED AT\tERROR")
		for _, j := range jobs {
			errMsg := ""
			if j.LastError != nil {
				// Truncate long error messages for the table view.
				errMsg = *j.LastError
				if len(errMsg) > 50 {
					errMsg = errMsg[:47] + "..."
				}
			}
			fmt.Fprintf(w, "%s\t%d/%d\t%s\t%s\n",
				j.ID, j.Attempts, *j.MaxRetries, j.UpdatedAt.Format(time.RFC3339), errMsg)
		}
		w.Flush()
		return nil
	},
}

var dlqRetryCmd = &cobra.Command{
	Use:   "retry [job-id]",
	Short: "Move a dead job back to pending with a fresh retry budget",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID := args[0]

		st, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		ok, err := st.RetryDead(cmd.Context(), jobID)
		if err != nil {
			return fmt.Errorf("failed to retry job: %w", err)
		}
		if !ok {
			return fmt.Errorf("no dead job with id %s", jobID)
		}

		cmd.Printf("Job %s moved back to pending.\n", jobID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dlqCmd)
	dlqCmd.AddCommand(dlqListCmd)
	dlqCmd.AddCommand(dlqRetryCmd)
}
