package worker

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"
)

// ShellResult is the outcome of running a job command through the shell.
type ShellResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// RunShell executes command via `sh -c`, capturing stdout and stderr,
// bounded by timeout. The child runs in its own process group and the
// whole group is killed on timeout so shell-spawned grandchildren do not
// outlive the job record.
func RunShell(ctx context.Context, command string, timeout time.Duration) ShellResult {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ShellResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		TimedOut: errors.Is(execCtx.Err(), context.DeadlineExceeded),
	}

	switch {
	case err == nil:
		result.ExitCode = 0
	case cmd.ProcessState != nil && cmd.ProcessState.ExitCode() >= 0:
		result.ExitCode = cmd.ProcessState.ExitCode()
	default:
		// Command could not be launched or was killed without an exit code.
		result.ExitCode = 1
		if result.Stderr == "" {
			result.Stderr = err.Error()
		}
	}

	return result
}
