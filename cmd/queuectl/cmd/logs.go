package cmd

import (
	"fmt"
	"os"

	"queuectl/internal/joblog"

	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs [job-id]",
	Short: "Print a job's append-only execution log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logs := joblog.New(cfg.LogDir)
		data, err := logs.Read(args[0])
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("no log file for job %s", args[0])
			}
			return fmt.Errorf("failed to read job log: %w", err)
		}

		cmd.Print(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
}
