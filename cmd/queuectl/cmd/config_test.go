package cmd

import (
	"context"
	"strings"
	"testing"

	"queuectl/internal/store"
)

func TestConfigSetThenGet(t *testing.T) {
	resetViper(t)

	output, err := execCLI("config", "set", "backoff_base", "5")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(output, "OK") {
		t.Errorf("got output %q", output)
	}

	output, err = execCLI("config", "get", "backoff_base")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.TrimSpace(output) != "5" {
		t.Errorf("got %q, want 5", output)
	}
}

func TestConfigGet_SeededDefaults(t *testing.T) {
	resetViper(t)

	output, err := execCLI("config", "get", "default_max_retries")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.TrimSpace(output) != "3" {
		t.Errorf("got %q, want seeded default 3", output)
	}
}

func TestConfigGet_MissingKeyIsEmpty(t *testing.T) {
	resetViper(t)

	output, err := execCLI("config", "get", "never_set")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.TrimSpace(output) != "" {
		t.Errorf("got %q, want empty", output)
	}
}

func TestConfigSet_LastWriteWins(t *testing.T) {
	resetViper(t)

	if _, err := execCLI("config", "set", "backoff_base", "3"); err != nil {
		t.Fatal(err)
	}
	if _, err := execCLI("config", "set", "backoff_base", "7"); err != nil {
		t.Fatal(err)
	}

	st := openTestStore(t)
	value, err := st.GetConfig(context.Background(), store.ConfigBackoffBase)
	if err != nil {
		t.Fatal(err)
	}
	if value != "7" {
		t.Errorf("got %q, want 7", value)
	}
}
