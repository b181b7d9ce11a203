package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"queuectl/internal/config"
	"queuectl/internal/joblog"
	"queuectl/internal/logger"
	"queuectl/internal/observability"
	"queuectl/internal/worker"
	"queuectl/internal/worker/pool"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Manage the worker pool",
}

var workerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start worker processes (pids recorded in the pidfile)",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if pids := existingWorkers(cfg.Pidfile); len(pids) > 0 {
			return fmt.Errorf("pidfile %s already lists %d workers; run 'queuectl worker stop' first", cfg.Pidfile, len(pids))
		}

		// Each worker re-executes this binary with the resolved settings so
		// the pool does not depend on the parent's environment surviving.
		baseArgs := []string{
			"worker", "run",
			"--db", cfg.DBPath,
			"--logdir", cfg.LogDir,
			"--poll-interval", cfg.PollInterval.String(),
		}

		sup, err := pool.New(cfg.Pidfile, baseArgs, logger.New())
		if err != nil {
			return err
		}

		pids, err := sup.Start(count)
		if err != nil {
			return err
		}

		cmd.Printf("Started %d workers (pids in %s)\n", len(pids), cfg.Pidfile)
		return nil
	},
}

var workerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop workers gracefully (reads the pidfile)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		sup := &pool.Supervisor{Pidfile: cfg.Pidfile, Logger: logger.New()}
		signalled, missing, err := sup.Stop()
		if err != nil {
			return err
		}

		if len(signalled) == 0 && len(missing) == 0 {
			cmd.Println("No pidfile found. No workers to stop.")
			return nil
		}
		for _, pid := range missing {
			cmd.Printf("Process %d not found\n", pid)
		}
		cmd.Printf("Stop signals sent to %d workers. They will exit after finishing their current job.\n", len(signalled))
		return nil
	},
}

var workerRunCmd = &cobra.Command{
	Use:    "run",
	Short:  "Run a single execution engine in the foreground",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		workerID, _ := cmd.Flags().GetString("worker-id")
		if workerID == "" {
			workerID = worker.NewWorkerID()
		}

		st, cfg, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := logger.WithWorkerID(cmd.Context(), workerID)
		log := logger.New()

		shutdownTracer, err := observability.InitTracer(ctx, "queuectl-worker", cfg.OTELEndpoint)
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer shutdownTracer(ctx)

		metricsHandler, shutdownMetrics, err := observability.InitMetrics()
		if err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}
		defer shutdownMetrics(ctx)

		if addr := viper.GetString("worker_metrics_addr"); addr != "" {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", metricsHandler)
				if err := http.ListenAndServe(addr, mux); err != nil {
					log.Error("metrics server error", "error", err)
				}
			}()
		}

		engine := worker.New(st, joblog.New(cfg.LogDir), log, worker.EngineConfig{
			ID:           workerID,
			PollInterval: cfg.PollInterval,
		})

		// Interrupt and terminate request a graceful stop: the engine
		// finishes its in-flight job and exits before claiming another.
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-quit
			logger.FromContext(ctx, log).Info("received signal, will stop after current job", "signal", sig.String())
			engine.Stop()
		}()

		return engine.Run(ctx)
	},
}

// existingWorkers returns pids listed in the pidfile that are still alive.
func existingWorkers(pidfile string) []int {
	sup := &pool.Supervisor{Pidfile: pidfile}
	pids, err := sup.Pids()
	if err != nil {
		return nil
	}
	var alive []int
	for _, pid := range pids {
		if syscall.Kill(pid, 0) == nil {
			alive = append(alive, pid)
		}
	}
	return alive
}

func init() {
	workerStartCmd.Flags().Int("count", 1, "number of worker processes to start")

	workerRunCmd.Flags().String("worker-id", "", "worker identity (generated when empty)")
	workerRunCmd.Flags().String("poll-interval", config.DefaultPollInterval.String(), "idle poll interval, e.g. 1s")
	viper.BindPFlag("poll_interval", workerRunCmd.Flags().Lookup("poll-interval"))

	workerCmd.AddCommand(workerStartCmd)
	workerCmd.AddCommand(workerStopCmd)
	workerCmd.AddCommand(workerRunCmd)
	rootCmd.AddCommand(workerCmd)
}
