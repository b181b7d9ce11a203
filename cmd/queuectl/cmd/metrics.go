package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show queue totals and average execution time",
	Long: `Show queue totals and the average execution time of completed jobs.

Failed counts pending jobs that have failed at least once and are waiting
for a retry; permanently failed jobs are counted under Dead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		m, err := st.Metrics(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load metrics: %w", err)
		}

		cmd.Printf("Total jobs: %d\n", m.Total)
		cmd.Printf("Completed: %d\n", m.Completed)
		cmd.Printf("Failed: %d\n", m.Failed)
		cmd.Printf("Dead: %d\n", m.Dead)
		if m.AvgDuration != nil {
			cmd.Printf("Average execution time: %.2fs\n", *m.AvgDuration)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}
