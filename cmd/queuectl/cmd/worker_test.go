package cmd

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestWorkerStop_NoPidfile(t *testing.T) {
	resetViper(t)

	output, err := execCLI("worker", "stop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "No workers to stop") {
		t.Errorf("got output %q", output)
	}
}

func TestWorkerStop_StalePids(t *testing.T) {
	resetViper(t)

	if err := os.WriteFile(viper.GetString("pidfile"), []byte("999999\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := execCLI("worker", "stop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "Process 999999 not found") {
		t.Errorf("got output %q", output)
	}
	if _, err := os.Stat(viper.GetString("pidfile")); !os.IsNotExist(err) {
		t.Error("pidfile was not removed")
	}
}

func TestWorkerStart_RefusesWhenWorkersAlive(t *testing.T) {
	resetViper(t)

	// The test process itself stands in for a live worker.
	pid := fmt.Sprintf("%d\n", os.Getpid())
	if err := os.WriteFile(viper.GetString("pidfile"), []byte(pid), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execCLI("worker", "start")
	if err == nil || !strings.Contains(err.Error(), "already lists") {
		t.Errorf("got %v, want already-running error", err)
	}
}

func TestWorkerRun_IsHidden(t *testing.T) {
	resetViper(t)

	output, err := execCLI("worker", "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(output, "run ") && strings.Contains(output, "foreground") {
		t.Errorf("hidden run subcommand leaked into help:\n%s", output)
	}
}
