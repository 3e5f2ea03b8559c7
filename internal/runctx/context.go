// Package runctx carries run, worker, and group identity through contexts so
// log lines emitted deep inside the engine can be correlated.
package runctx

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	workerIDKey contextKey = "worker_id"
	groupKey    contextKey = "group"
)

// WithRunID annotates context with the run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithWorkerID annotates context with the worker index.
func WithWorkerID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, workerIDKey, id)
}

// WorkerIDFromContext extracts the worker index if present.
func WorkerIDFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(workerIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithGroup annotates context with the identifier of the group being stitched.
func WithGroup(ctx context.Context, identifier string) context.Context {
	if identifier == "" {
		return ctx
	}
	return context.WithValue(ctx, groupKey, identifier)
}

// GroupFromContext returns the group identifier if present.
func GroupFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(groupKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
