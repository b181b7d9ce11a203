// Package pool manages the worker process pool: spawning execution engine
// processes, recording their pids and relaying stop signals. It owns no
// job state; crashed workers cannot corrupt claims because reservations
// live in the store.
package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"queuectl/internal/worker"
)

// Supervisor spawns and stops worker processes via a pidfile.
type Supervisor struct {
	// Pidfile records one process id per line.
	Pidfile string

	// Exe is the binary to spawn; BaseArgs are prepended to every worker's
	// argument list (the `worker run` subcommand plus configuration flags).
	Exe      string
	BaseArgs []string

	Logger *slog.Logger
}

// New builds a Supervisor that re-executes the current binary.
func New(pidfile string, baseArgs []string, logger *slog.Logger) (*Supervisor, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{Pidfile: pidfile, Exe: exe, BaseArgs: baseArgs, Logger: logger}, nil
}

// Start spawns count worker processes, each with a generated identity, and
// writes their pids to the pidfile. Workers keep running after the parent
// CLI exits.
func (s *Supervisor) Start(count int) ([]int, error) {
	if count <= 0 {
		count = 1
	}

	pids := make([]int, 0, count)
	for i := 0; i < count; i++ {
		workerID := worker.NewWorkerID()
		args := append(append([]string{}, s.BaseArgs...), "--worker-id", workerID)

		cmd := exec.Command(s.Exe, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		// Own process group: the group must survive the parent CLI and a
		// Ctrl-C in its terminal.
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

		if err := cmd.Start(); err != nil {
			s.signalAll(pids, syscall.SIGTERM)
			return nil, fmt.Errorf("failed to start worker %d: %w", i+1, err)
		}

		s.Logger.Info("started worker", "worker_id", workerID, "pid", cmd.Process.Pid)
		pids = append(pids, cmd.Process.Pid)

		// Reap the child when it exits so stopped workers do not linger as
		// zombies while the parent is still alive.
		go func(c *exec.Cmd) { _ = c.Wait() }(cmd)
	}

	if err := s.writePidfile(pids); err != nil {
		s.signalAll(pids, syscall.SIGTERM)
		return nil, err
	}

	return pids, nil
}

// Stop reads the pidfile, sends SIGTERM to every listed pid and removes
// the pidfile. Missing processes are reported, not fatal: the returned
// slices list the pids actually signalled and the ones not found.
func (s *Supervisor) Stop() (signalled, missing []int, err error) {
	pids, err := s.Pids()
	if err != nil {
		return nil, nil, err
	}

	for _, pid := range pids {
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
			if errors.Is(err, syscall.ESRCH) {
				s.Logger.Warn("worker process not found", "pid", pid)
				missing = append(missing, pid)
				continue
			}
			return signalled, missing, fmt.Errorf("failed to signal pid %d: %w", pid, err)
		}
		s.Logger.Info("sent SIGTERM", "pid", pid)
		signalled = append(signalled, pid)
	}

	if err := os.Remove(s.Pidfile); err != nil && !os.IsNotExist(err) {
		return signalled, missing, fmt.Errorf("failed to remove pidfile: %w", err)
	}

	return signalled, missing, nil
}

// Pids returns the process ids listed in the pidfile. A missing pidfile
// yields an empty list.
func (s *Supervisor) Pids() ([]int, error) {
	data, err := os.ReadFile(s.Pidfile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read pidfile: %w", err)
	}

	var pids []int
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("invalid pid %q in pidfile: %w", line, err)
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

func (s *Supervisor) writePidfile(pids []int) error {
	var b strings.Builder
	for _, pid := range pids {
		fmt.Fprintf(&b, "%d\n", pid)
	}
	if err := os.WriteFile(s.Pidfile, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write pidfile: %w", err)
	}
	return nil
}

func (s *Supervisor) signalAll(pids []int, sig syscall.Signal) {
	for _, pid := range pids {
		_ = syscall.Kill(pid, sig)
	}
}
