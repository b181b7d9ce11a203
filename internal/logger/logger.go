// Package logger provides structured logging setup using slog.
package logger

import (
	"context"
	"log/slog"
	"os"
)

// workerIDKey is the context key for worker identities.
type workerIDKey struct{}

// New creates a new structured JSON logger.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// WithWorkerID returns a new context carrying the given worker identity.
func WithWorkerID(ctx context.Context, workerID string) context.Context {
	return context.WithValue(ctx, workerIDKey{}, workerID)
}

// WorkerIDFromContext extracts the worker identity from the context.
func WorkerIDFromContext(ctx context.Context) string {
	if v := ctx.Value(workerIDKey{}); v != nil {
		return v.(string)
	}
	return ""
}

// FromContext returns a logger with context fields (worker ID, etc.) attached.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if workerID := WorkerIDFromContext(ctx); workerID != "" {
		return base.With("worker_id", workerID)
	}
	return base
}
