package cmd

import (
	"strings"
	"testing"

	"queuectl/internal/joblog"

	"github.com/spf13/viper"
)

func TestLogs_PrintsJobLog(t *testing.T) {
	resetViper(t)

	logs := joblog.New(viper.GetString("logdir"))
	if err := logs.Append("with-log", "Worker qworker-ab12cd34 executing: echo hi"); err != nil {
		t.Fatal(err)
	}
	if err := logs.Append("with-log", "SUCCESS stdout: hi"); err != nil {
		t.Fatal(err)
	}

	output, err := execCLI("logs", "with-log")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "executing: echo hi") || !strings.Contains(output, "SUCCESS stdout: hi") {
		t.Errorf("got output:\n%s", output)
	}
}

func TestLogs_MissingJob(t *testing.T) {
	resetViper(t)

	_, err := execCLI("logs", "no-such-job")
	if err == nil || !strings.Contains(err.Error(), "no log file") {
		t.Errorf("got %v, want no log file error", err)
	}
}

func TestLogs_RequiresArg(t *testing.T) {
	resetViper(t)

	if _, err := execCLI("logs"); err == nil {
		t.Error("expected error when job id argument is missing")
	}
}
