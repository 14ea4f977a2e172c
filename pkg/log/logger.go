package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

var (
	providerMu    sync.RWMutex
	defaultLogger Logger = NewZerologLogger(os.Stderr, LevelInfo, false)
)

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultLogger
}

// GetLoggerWithName returns the process-wide logger tagged with a component.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// SetLogger replaces the process-wide logger and routes library warnings
// (ConvergenceWarning and friends) into it.
func SetLogger(l Logger) {
	providerMu.Lock()
	defaultLogger = l
	providerMu.Unlock()
	RouteWarnings(l)
}

// RouteWarnings sends warnings raised through errors.Warn to l.
func RouteWarnings(l Logger) {
	if zl, ok := l.(*ZerologLogger); ok {
		errors.SetZerologWarnFunc(zl.warnObject)
		return
	}
	errors.SetZerologWarnFunc(func(w error) {
		l.Warn(w.Error(), ErrorTypeKey, fmt.Sprintf("%T", w))
	})
}

// Setup builds a logger from configuration values and installs it as the
// process-wide logger. format is "json" (slog JSON with stacktraces) or
// "console" (zerolog console writer).
func Setup(level, format string, w io.Writer) (Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var l Logger
	switch strings.ToLower(format) {
	case "", "console":
		l = NewZerologLogger(w, lvl, true)
	case "json":
		l = NewSlogLogger(newJSONHandler(w, slog.Level(lvl)))
	case "zerolog":
		l = NewZerologLogger(w, lvl, false)
	default:
		return nil, errors.NewValidationError("log.format", "must be one of console, json, zerolog", format)
	}
	SetLogger(l)
	return l, nil
}

func newJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{Key: "severity", Value: attr.Value}
			case slog.MessageKey:
				attr = slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	}
	return WrapByErrFmtHandler(slog.NewJSONHandler(w, &ops))
}

// ParseLevel converts a config string to a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("log.level", "must be one of debug, info, warn, error", level)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps a slog handler.
func NewSlogLogger(h slog.Handler) *SlogLogger {
	return &SlogLogger{l: slog.New(h)}
}

func (s *SlogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, slogArgs(fields)...) }
func (s *SlogLogger) Info(msg string, fields ...any)  { s.l.Info(msg, slogArgs(fields)...) }
func (s *SlogLogger) Warn(msg string, fields ...any)  { s.l.Warn(msg, slogArgs(fields)...) }
func (s *SlogLogger) Error(msg string, fields ...any) { s.l.Error(msg, slogArgs(fields)...) }

// With implements Logger.With.
func (s *SlogLogger) With(fields ...any) Logger {
	return &SlogLogger{l: s.l.With(slogArgs(fields)...)}
}

// Enabled implements Logger.Enabled.
func (s *SlogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, slog.Level(level))
}

func slogArgs(fields []any) []any {
	if len(fields) == 0 {
		return nil
	}
	if err, ok := fields[0].(error); ok {
		out := make([]any, 0, len(fields))
		out = append(out, ErrAttr(err))
		return append(out, fields[1:]...)
	}
	return fields
}
