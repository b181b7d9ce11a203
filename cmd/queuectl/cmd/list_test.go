package cmd

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"queuectl/internal/store"
)

func TestList_Empty(t *testing.T) {
	resetViper(t)
	resetFlags(listCmd)

	output, err := execCLI("list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "No jobs found.") {
		t.Errorf("got output %q", output)
	}
}

func TestList_Table(t *testing.T) {
	resetViper(t)
	resetFlags(listCmd)
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Enqueue(ctx, &store.Job{ID: "short", Command: "echo hi", Priority: 3}); err != nil {
		t.Fatal(err)
	}
	long := strings.Repeat("x", 60)
	if err := st.Enqueue(ctx, &store.Job{ID: "long", Command: "echo " + long}); err != nil {
		t.Fatal(err)
	}

	output, err := execCLI("list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"ID", "STATE", "PRIORITY", "short", "long", "pending"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, long) {
		t.Error("long command was not truncated")
	}
	if !strings.Contains(output, "...") {
		t.Error("truncated command missing ellipsis")
	}
}

func TestList_StateFilter(t *testing.T) {
	resetViper(t)
	resetFlags(listCmd)
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Enqueue(ctx, &store.Job{ID: "stays-pending", Command: "echo a"}); err != nil {
		t.Fatal(err)
	}
	if err := st.Enqueue(ctx, &store.Job{ID: "gets-done", Command: "echo b"}); err != nil {
		t.Fatal(err)
	}
	if err := st.MarkSucceeded(ctx, "gets-done"); err != nil {
		t.Fatal(err)
	}

	output, err := execCLI("list", "--state", "completed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "gets-done") {
		t.Errorf("filtered output missing completed job:\n%s", output)
	}
	if strings.Contains(output, "stays-pending") {
		t.Errorf("filtered output leaked pending job:\n%s", output)
	}
}

func TestList_UnknownState(t *testing.T) {
	resetViper(t)
	resetFlags(listCmd)

	_, err := execCLI("list", "--state", "halfway")
	if err == nil || !strings.Contains(err.Error(), "unknown state") {
		t.Errorf("got %v, want unknown state error", err)
	}
}

func TestList_JSON(t *testing.T) {
	resetViper(t)
	resetFlags(listCmd)
	st := openTestStore(t)

	if err := st.Enqueue(context.Background(), &store.Job{ID: "json-out", Command: "echo j", Priority: 2}); err != nil {
		t.Fatal(err)
	}

	output, err := execCLI("list", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var job store.Job
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &job); err != nil {
		t.Fatalf("output is not a JSON job document: %v\n%s", err, output)
	}
	if job.ID != "json-out" || job.Priority != 2 {
		t.Errorf("decoded job %+v", job)
	}
}
