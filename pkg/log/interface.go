// Package log provides the structured logging interface used across regbench.
//
// The Logger interface is slog-compatible so that the zerolog backend (the
// default) and the slog JSON backend can be swapped from configuration without
// touching call sites. Attribute keys for ML operations live in attributes.go.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "knn",
//	    log.DatasetKey, "base",
//	)
//	logger.Info("grid search finished",
//	    log.PreprocessingKey, "standard_scaling",
//	    log.R2ScoreKey, 0.91,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. Error may receive an error value as
// its first field; backends record it under ErrAttrKey.
type Logger interface {
	// Debug logs detailed diagnostic information, such as per-fold scores.
	Debug(msg string, fields ...any)

	// Info logs progress information.
	Info(msg string, fields ...any)

	// Warn logs conditions that do not stop the run, e.g. convergence warnings.
	Warn(msg string, fields ...any)

	// Error logs failures. If the first field is an error it is handled specially.
	Error(msg string, fields ...any)

	// With returns a Logger that includes fields in every subsequent record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
