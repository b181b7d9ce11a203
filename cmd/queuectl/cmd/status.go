package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"queuectl/internal/store"
	"queuectl/internal/worker/pool"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-state job counts and active worker pids",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, cfg, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := st.CountsByState(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load counts: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "STATE\tCOUNT")
		for _, s := range []store.JobState{store.JobStatePending, store.JobStateProcessing, store.JobStateCompleted, store.JobStateDead} {
			fmt.Fprintf(w, "%s\t%d\n", s, counts[s])
		}
		w.Flush()

		sup := &pool.Supervisor{Pidfile: cfg.Pidfile}
		pids, err := sup.Pids()
		if err != nil || len(pids) == 0 {
			cmd.Println("Active worker pids: none")
			return nil
		}

		strs := make([]string, len(pids))
		for i, pid := range pids {
			strs[i] = strconv.Itoa(pid)
		}
		cmd.Printf("Active worker pids: %s\n", strings.Join(strs, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
