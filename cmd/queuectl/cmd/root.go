package cmd

import (
	"context"
	"fmt"
	"os"

	"queuectl/internal/config"
	"queuectl/internal/logger"
	"queuectl/internal/store/sqlite"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "queuectl",
	Short: "queuectl is a persistent, multi-worker shell job queue",
	Long: `queuectl manages a durable queue of shell-executable jobs backed by a
single SQLite database shared by all workers on this host.

Jobs carry a priority, an optional delay or scheduled time, a timeout and
a retry budget. A pool of worker processes atomically claims jobs, runs
their commands through the shell and applies exponential backoff on
failure; jobs that exhaust their retries land in the dead letter queue
until an operator retries them.

Common workflows:

  Enqueue a job:
    queuectl enqueue --id job1 --command "echo hello" --priority 5

  Start three workers (pids recorded in the pidfile):
    queuectl worker start --count 3

  Inspect the queue:
    queuectl status
    queuectl list --state pending
    queuectl dlq list

  Retry a dead job:
    queuectl dlq retry job1

Configuration:
  Settings come from flags, QUEUECTL_* environment variables or an optional
  config file:
    QUEUECTL_DB        SQLite database path (default: qctl.db)
    QUEUECTL_PIDFILE   worker pool pidfile (default: qctl.pid)
    QUEUECTL_LOGDIR    per-job log directory (default: logs)`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".queuectl".
			viper.AddConfigPath(home)
			viper.SetConfigName(".queuectl")
			viper.SetConfigType("yaml")
		}
	}

	// Read environment variables that match "QUEUECTL_VARNAME".
	viper.SetEnvPrefix("QUEUECTL")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.queuectl.yaml)")

	rootCmd.PersistentFlags().String("db", config.DefaultDBPath, "path to the SQLite database")
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.PersistentFlags().String("pidfile", config.DefaultPidfile, "path to the worker pool pidfile")
	viper.BindPFlag("pidfile", rootCmd.PersistentFlags().Lookup("pidfile"))

	rootCmd.PersistentFlags().String("logdir", config.DefaultLogDir, "directory for per-job log files")
	viper.BindPFlag("logdir", rootCmd.PersistentFlags().Lookup("logdir"))
}

// loadConfig resolves the effective configuration from viper.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// openStore loads the configuration and opens the SQLite store.
func openStore(ctx context.Context) (*sqlite.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := sqlite.New(ctx, cfg.DBPath, logger.New())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, cfg, nil
}
