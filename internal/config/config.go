// Package config handles configuration loading for database path, pidfile,
// log directory and worker tuning. Values come from flags, environment
// variables (QUEUECTL_ prefix) or an optional config file, all via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Defaults for every tunable.
const (
	DefaultDBPath        = "qctl.db"
	DefaultPidfile       = "qctl.pid"
	DefaultLogDir        = "logs"
	DefaultPollInterval  = time.Second
	DefaultDashboardAddr = ":8080"
)

// Config holds all configuration values for the application.
type Config struct {
	// Path to the SQLite database file shared by all workers on this host.
	DBPath string

	// Path to the pidfile the worker pool supervisor writes.
	Pidfile string

	// Directory holding one append-only log file per job.
	LogDir string

	// How long an idle worker sleeps between claim attempts.
	PollInterval time.Duration

	// Listen address for the read-only web dashboard.
	DashboardAddr string

	// OTLP collector endpoint for tracing; empty disables the exporter.
	OTELEndpoint string
}

// SetDefaults registers defaults on v so environment overrides resolve even
// when no flag or config file mentions a key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db", DefaultDBPath)
	v.SetDefault("pidfile", DefaultPidfile)
	v.SetDefault("logdir", DefaultLogDir)
	v.SetDefault("poll_interval", DefaultPollInterval.String())
	v.SetDefault("dashboard_addr", DefaultDashboardAddr)
	v.SetDefault("otel_endpoint", "")
}

// Load reads the configuration out of v.
func Load(v *viper.Viper) (*Config, error) {
	pollInterval, err := time.ParseDuration(v.GetString("poll_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid poll_interval: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	cfg := &Config{
		DBPath:        v.GetString("db"),
		Pidfile:       v.GetString("pidfile"),
		LogDir:        v.GetString("logdir"),
		PollInterval:  pollInterval,
		DashboardAddr: v.GetString("dashboard_addr"),
		OTELEndpoint:  v.GetString("otel_endpoint"),
	}

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path must not be empty")
	}

	return cfg, nil
}
