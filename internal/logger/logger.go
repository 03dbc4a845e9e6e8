// Package logger configures slog for the relay services and provides the
// per-request logger used by the HTTP middleware and handlers.
//
// In dev and test environments logs are written with the tint handler
// (human-readable, colored). In staging and prod the handler is JSON so the
// output can be shipped to a log aggregator unchanged.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// LevelNone disables all log output (used by tests that run the server in-process).
const LevelNone = slog.Level(12)

// ParseLogLevel converts a LOG_LEVEL environment string to a slog.Level.
// Unrecognized values fall back to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none":
		return LevelNone
	default:
		return slog.LevelInfo
	}
}

// InitLogger creates the application logger and installs it as the slog default.
func InitLogger(level slog.Level, environment string) *slog.Logger {
	var handler slog.Handler

	switch {
	case level == LevelNone:
		handler = slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
	case environment == "dev" || environment == "test":
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

type ctxKey int

const (
	requestLoggerKey ctxKey = iota
	logAttrsKey
)

// attrCollector accumulates attributes added by middleware and handlers so the
// final request log line can include them. The pointer is stored in the request
// context once, so later additions do not require re-deriving the context.
type attrCollector struct {
	attrs []slog.Attr
}

// ContextWithRequestLogger returns a context carrying a request-scoped logger
// plus an empty attribute collector. Called once per request by the logging
// middleware.
func ContextWithRequestLogger(ctx context.Context, logger *slog.Logger) context.Context {
	ctx = context.WithValue(ctx, requestLoggerKey, logger)
	return context.WithValue(ctx, logAttrsKey, &attrCollector{})
}

// ContextRequestLogger returns the request-scoped logger, or the process
// default logger when called outside a request.
func ContextRequestLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(requestLoggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// ContextWithLogAttrs records attributes to be included in the final request
// log line written by the logging middleware.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	if collector, ok := ctx.Value(logAttrsKey).(*attrCollector); ok {
		collector.attrs = append(collector.attrs, attrs...)
	}
}

// ContextLogAttrs returns the attributes recorded during the request.
func ContextLogAttrs(ctx context.Context) []slog.Attr {
	if collector, ok := ctx.Value(logAttrsKey).(*attrCollector); ok {
		return collector.attrs
	}
	return nil
}
