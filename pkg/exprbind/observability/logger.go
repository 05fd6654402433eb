// Package observability provides logging, metrics, and tracing helpers for
// exprbind: structured logging via slog, metrics and tracing via
// OpenTelemetry.
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds observer context to a logger.
// Returns a new logger with observer_id and expr fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, id, "user.name | upper")
//	enriched.Debug("re-evaluated") // includes observer_id, expr
func EnrichLogger(logger *slog.Logger, observerID, expr string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("observer_id", observerID),
		slog.String("expr", expr),
	)
}

// LogObserverOpen logs an observer starting to track its dependencies.
func LogObserverOpen(logger *slog.Logger, observerID, expr string, deps int) {
	if logger == nil {
		return
	}
	logger.Debug("observer opened",
		slog.String("observer_id", observerID),
		slog.String("expr", expr),
		slog.Int("deps", deps),
	)
}

// LogObserverClose logs an observer releasing its dependencies.
func LogObserverClose(logger *slog.Logger, observerID string, live int) {
	if logger == nil {
		return
	}
	logger.Debug("observer closed",
		slog.String("observer_id", observerID),
		slog.Int("live", live),
	)
}

// LogCheckpoint logs a completed checkpoint.
func LogCheckpoint(logger *slog.Logger, cycles, evaluations, fired int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint completed",
		slog.Int("cycles", cycles),
		slog.Int("evaluations", evaluations),
		slog.Int("fired", fired),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogEvalError logs an evaluation or callback failure reported to the
// error sink.
func LogEvalError(logger *slog.Logger, observerID, expr string, err error) {
	if logger == nil {
		return
	}
	logger.Error("binding failed",
		slog.String("observer_id", observerID),
		slog.String("expr", expr),
		slog.String("error", err.Error()),
	)
}

// LogSnapshot logs a saved model snapshot.
func LogSnapshot(logger *slog.Logger, sessionID string, seq int64, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("snapshot saved",
		slog.String("session_id", sessionID),
		slog.Int64("seq", seq),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogSnapshotError logs a snapshot failure (non-fatal).
func LogSnapshotError(logger *slog.Logger, sessionID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("snapshot failed",
		slog.String("session_id", sessionID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
