package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete completed jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		completed, _ := cmd.Flags().GetBool("completed")
		if !completed {
			return fmt.Errorf("use --completed to confirm purging completed jobs")
		}

		st, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		deleted, err := st.PurgeCompleted(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to purge: %w", err)
		}

		cmd.Printf("Deleted %d completed jobs\n", deleted)
		return nil
	},
}

func init() {
	purgeCmd.Flags().Bool("completed", false, "purge jobs in the completed state")

	rootCmd.AddCommand(purgeCmd)
}
