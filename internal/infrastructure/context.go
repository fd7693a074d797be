package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// RunIDContextKey is the context key holding the id of the current run.
const RunIDContextKey contextKey = "run_id"

// NewRunID creates a new unique run id using UUID v4.
func NewRunID() string {
	return uuid.New().String()
}

// WithRunID stores runID in ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDContextKey, runID)
}

// RunID returns the run id stored in ctx, or "".
func RunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDContextKey).(string); ok {
		return runID
	}
	return ""
}

// EnsureRunID returns ctx with a run id, generating one if needed.
func EnsureRunID(ctx context.Context) context.Context {
	if RunID(ctx) == "" {
		return WithRunID(ctx, NewRunID())
	}
	return ctx
}
