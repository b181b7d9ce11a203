// Package worker contains the execution engine: the per-worker loop that
// claims jobs from the store, runs their commands through the shell and
// reports the outcome back.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"queuectl/internal/joblog"
	"queuectl/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// reportRetries bounds how often a worker retries reporting an outcome to
// a busy store before halting. Losing the report would risk a silent
// double execution, so the worker prefers to stop.
const reportRetries = 5

// EngineConfig holds configuration for a single execution engine.
type EngineConfig struct {
	ID           string
	PollInterval time.Duration
}

// Engine is the per-worker claim/execute/report loop.
type Engine struct {
	queue    store.Queue
	logs     *joblog.Writer
	logger   *slog.Logger
	config   EngineConfig
	stopping atomic.Bool
	stopCh   chan struct{}
	stopOnce atomic.Bool

	tracer    trace.Tracer
	claimed   metric.Int64Counter
	succeeded metric.Int64Counter
	failed    metric.Int64Counter
}

// NewWorkerID generates a worker identity in the qworker-<suffix> form.
func NewWorkerID() string {
	return "qworker-" + uuid.NewString()[:8]
}

// New creates an execution engine bound to the given queue and job log
// writer.
func New(q store.Queue, logs *joblog.Writer, logger *slog.Logger, config EngineConfig) *Engine {
	if config.ID == "" {
		config.ID = NewWorkerID()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter("queuectl/worker")
	claimed, _ := meter.Int64Counter("queuectl.jobs.claimed")
	succeeded, _ := meter.Int64Counter("queuectl.jobs.succeeded")
	failed, _ := meter.Int64Counter("queuectl.jobs.failed")

	return &Engine{
		queue:     q,
		logs:      logs,
		logger:    logger.With("worker_id", config.ID),
		config:    config,
		stopCh:    make(chan struct{}),
		tracer:    otel.Tracer("queuectl/worker"),
		claimed:   claimed,
		succeeded: succeeded,
		failed:    failed,
	}
}

// ID returns the worker identity.
func (e *Engine) ID() string {
	return e.config.ID
}

// Stop requests a graceful stop: the engine finishes any in-flight job and
// exits before claiming another. Safe to call from a signal handler
// goroutine and idempotent.
func (e *Engine) Stop() {
	e.stopping.Store(true)
	if e.stopOnce.CompareAndSwap(false, true) {
		close(e.stopCh)
	}
}

// Run executes the claim loop until Stop is called or the context is
// cancelled. A storage error while reporting an outcome halts the worker:
// continuing without a recorded outcome could double-execute the job.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("worker started", "poll_interval", e.config.PollInterval.String())

	for {
		if e.stopping.Load() || ctx.Err() != nil {
			e.logger.Info("worker stopping gracefully")
			return nil
		}

		job, err := e.queue.ClaimNext(ctx, e.config.ID)
		if err != nil {
			if errors.Is(err, store.ErrStoreBusy) {
				// Lost the race for the write lock; try again next poll.
				e.idle(ctx)
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			e.logger.Error("claim failed", "error", err)
			e.idle(ctx)
			continue
		}

		if job == nil {
			e.idle(ctx)
			continue
		}

		if err := e.process(ctx, job); err != nil {
			return err
		}
	}
}

// idle sleeps one poll interval, waking early on stop or cancellation.
func (e *Engine) idle(ctx context.Context) {
	timer := time.NewTimer(e.config.PollInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-e.stopCh:
	case <-ctx.Done():
	}
}

// process executes one claimed job and reports the outcome.
func (e *Engine) process(ctx context.Context, job *store.Job) error {
	spanCtx, span := e.tracer.Start(ctx, "process_job",
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.Int("job.attempts", job.Attempts),
			attribute.Int("job.priority", job.Priority),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	e.claimed.Add(spanCtx, 1)
	e.logger.Info("claimed job", "job_id", job.ID, "attempts", job.Attempts, "command", job.Command)
	e.appendLog(job.ID, fmt.Sprintf("Worker %s executing: %s", e.config.ID, job.Command))

	timeout := time.Duration(job.Timeout) * time.Second
	if timeout <= 0 {
		timeout = store.DefaultTimeout * time.Second
	}

	// The shell run deliberately uses a fresh context: a stop signal drains
	// the in-flight job instead of interrupting it. The job's own timeout
	// is the only hard execution bound.
	result := RunShell(context.Background(), job.Command, timeout)

	if result.ExitCode == 0 && !result.TimedOut {
		e.succeeded.Add(spanCtx, 1)
		e.appendLog(job.ID, fmt.Sprintf("SUCCESS stdout: %s", strings.TrimSpace(result.Stdout)))
		if err := e.report(spanCtx, job.ID, func(c context.Context) error {
			return e.queue.MarkSucceeded(c, job.ID)
		}); err != nil {
			return err
		}
		e.logger.Info("job completed", "job_id", job.ID)
		return nil
	}

	msg := failureMessage(result, timeout)
	span.SetAttributes(attribute.Int("exit_code", result.ExitCode))
	span.RecordError(errors.New(msg))
	e.failed.Add(spanCtx, 1)
	e.appendLog(job.ID, fmt.Sprintf("FAIL %s", msg))
	if err := e.report(spanCtx, job.ID, func(c context.Context) error {
		return e.queue.MarkFailed(c, job.ID, msg)
	}); err != nil {
		return err
	}
	e.logger.Warn("job failed", "job_id", job.ID, "error", msg)
	return nil
}

// failureMessage combines the exit code with captured stderr, falling back
// to stdout when stderr is empty. Timeouts get their own message.
func failureMessage(result ShellResult, timeout time.Duration) string {
	if result.TimedOut {
		return fmt.Sprintf("timed out after %d seconds", int(timeout.Seconds()))
	}
	detail := strings.TrimSpace(result.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(result.Stdout)
	}
	return fmt.Sprintf("exit=%d; stderr=%s", result.ExitCode, detail)
}

// report applies an outcome transition, retrying through transient store
// contention. Any other storage error is returned and halts the worker.
func (e *Engine) report(ctx context.Context, jobID string, fn func(context.Context) error) error {
	var err error
	for i := 0; i < reportRetries; i++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, store.ErrStoreBusy) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if err != nil {
		e.logger.Error("failed to report job outcome, halting worker", "job_id", jobID, "error", err)
		return fmt.Errorf("report outcome for job %s: %w", jobID, err)
	}
	return nil
}

// appendLog writes a line to the per-job log; failures are logged, never
// fatal to job processing.
func (e *Engine) appendLog(jobID, text string) {
	if e.logs == nil {
		return
	}
	if err := e.logs.Append(jobID, text); err != nil {
		e.logger.Warn("job log write failed", "job_id", jobID, "error", err)
	}
}
