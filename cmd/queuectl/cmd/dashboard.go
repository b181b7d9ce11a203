package cmd

import (
	"fmt"
	"net/http"

	"queuectl/internal/config"
	"queuectl/internal/dashboard"
	"queuectl/internal/logger"
	"queuectl/internal/observability"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the read-only web dashboard",
	Long: `Serve an HTML view of the queue (auto-refreshing job table, per-state
counts and metrics) plus /healthz and a Prometheus /metrics endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, cfg, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		log := logger.New()

		metricsHandler, shutdownMetrics, err := observability.InitMetrics()
		if err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}
		defer shutdownMetrics(cmd.Context())

		srv, err := dashboard.New(st, log, metricsHandler)
		if err != nil {
			return fmt.Errorf("failed to build dashboard: %w", err)
		}

		log.Info("dashboard listening", "addr", cfg.DashboardAddr)
		return http.ListenAndServe(cfg.DashboardAddr, srv.Router())
	},
}

func init() {
	dashboardCmd.Flags().String("addr", config.DefaultDashboardAddr, "listen address for the dashboard")
	viper.BindPFlag("dashboard_addr", dashboardCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(dashboardCmd)
}
