package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get or set engine tunables stored in the database",
	Long: `The config store holds engine-wide tunables consulted at enqueue time
and on failure handling, notably backoff_base (default 2) and
default_max_retries (default 3). Changes apply to subsequent operations
only; existing jobs are not recomputed.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		value, err := st.GetConfig(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get config: %w", err)
		}
		cmd.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a config value (last write wins)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SetConfig(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("failed to set config: %w", err)
		}
		cmd.Println("OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
