package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"queuectl/internal/store"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, optionally filtered by state",
	RunE: func(cmd *cobra.Command, args []string) error {
		stateFlag, _ := cmd.Flags().GetString("state")
		asJSON, _ := cmd.Flags().GetBool("json")

		state := store.JobState(stateFlag)
		if state != "" && !store.ValidState(state) {
			return fmt.Errorf("unknown state %q (want pending, processing, completed or dead)", stateFlag)
		}

		st, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		jobs, err := st.ListJobs(cmd.Context(), state)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, j := range jobs {
				if err := enc.Encode(j); err != nil {
					return err
				}
			}
			return nil
		}

		if len(jobs) == 0 {
			cmd.Println("No jobs found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATE\tPRIORITY\tATTEMPTS\tRUN AT\tUPDATED\tCOMMAND")
		for _, j := range jobs {
			runAt := ""
			if j.RunAt != nil {
				runAt = j.RunAt.Format(time.RFC3339)
			}
			command := j.Command
			if len(command) > 40 {
				command = command[:37] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d/%d\t%s\t%s\t%s\n",
				j.ID, j.State, j.Priority, j.Attempts, *j.MaxRetries,
				runAt, j.UpdatedAt.Format(time.RFC3339), command)
		}
		w.Flush()
		return nil
	},
}

func init() {
	listCmd.Flags().String("state", "", "filter by state: pending, processing, completed, dead")
	listCmd.Flags().Bool("json", false, "emit one JSON document per job")

	rootCmd.AddCommand(listCmd)
}
