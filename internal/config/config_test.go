package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath != DefaultDBPath {
		t.Errorf("got db %q, want %q", cfg.DBPath, DefaultDBPath)
	}
	if cfg.Pidfile != DefaultPidfile {
		t.Errorf("got pidfile %q, want %q", cfg.Pidfile, DefaultPidfile)
	}
	if cfg.LogDir != DefaultLogDir {
		t.Errorf("got logdir %q, want %q", cfg.LogDir, DefaultLogDir)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Errorf("got poll interval %v, want %v", cfg.PollInterval, DefaultPollInterval)
	}
	if cfg.DashboardAddr != DefaultDashboardAddr {
		t.Errorf("got dashboard addr %q, want %q", cfg.DashboardAddr, DefaultDashboardAddr)
	}
	if cfg.OTELEndpoint != "" {
		t.Errorf("got otel endpoint %q, want empty", cfg.OTELEndpoint)
	}
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("db", "/data/jobs.db")
	v.Set("poll_interval", "250ms")
	v.Set("dashboard_addr", "127.0.0.1:9000")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath != "/data/jobs.db" {
		t.Errorf("got db %q", cfg.DBPath)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("got poll interval %v, want 250ms", cfg.PollInterval)
	}
	if cfg.DashboardAddr != "127.0.0.1:9000" {
		t.Errorf("got dashboard addr %q", cfg.DashboardAddr)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("QUEUECTL")
	v.AutomaticEnv()
	t.Setenv("QUEUECTL_DB", "/env/env.db")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/env/env.db" {
		t.Errorf("got db %q, want env value", cfg.DBPath)
	}
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("poll_interval", "soon")

	if _, err := Load(v); err == nil || !strings.Contains(err.Error(), "poll_interval") {
		t.Errorf("got %v, want invalid poll_interval error", err)
	}
}

func TestLoad_NonPositivePollIntervalFallsBack(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("poll_interval", "0s")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Errorf("got %v, want default", cfg.PollInterval)
	}
}

func TestLoad_EmptyDBPathRejected(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("db", "")

	if _, err := Load(v); err == nil {
		t.Error("expected error for empty db path")
	}
}
