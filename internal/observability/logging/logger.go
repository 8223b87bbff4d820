// Package logging provides structured logging utilities using the standard
// library's log/slog package. It offers helper functions for creating
// loggers with consistent configuration and context propagation, shared by
// the coordinator and worker binaries.
package logging

import (
	"context"
	"log/slog"
	"os"
)

// NewLogger creates a new structured JSON logger. The level is controlled
// via the LOG_LEVEL environment variable ("debug", "info", "warn",
// "error"); default is info. Source location is attached to every record
// when the level is debug, info or warn, and omitted when it is error.
func NewLogger() *slog.Logger {
	logLevel := levelFromEnv()

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel <= slog.LevelWarn,
	})

	return slog.New(handler)
}

// NewTextLogger creates a human-readable text logger, useful for local
// development.
func NewTextLogger() *slog.Logger {
	logLevel := levelFromEnv()

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel <= slog.LevelWarn,
	})

	return slog.New(handler)
}

func levelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithItem returns a logger annotated with the per-URL fields named in
// spec §7: url, oid, aid, stage, outcome. error_kind is added separately
// via WithErrorKind when the outcome is a failure.
func WithItem(logger *slog.Logger, url, oid, aid, stage, outcome string) *slog.Logger {
	return logger.With(
		slog.String("url", url),
		slog.String("oid", oid),
		slog.String("aid", aid),
		slog.String("stage", stage),
		slog.String("outcome", outcome),
	)
}

// WithErrorKind annotates logger with the error_kind field from the error
// taxonomy in spec §7.
func WithErrorKind(logger *slog.Logger, kind string) *slog.Logger {
	return logger.With(slog.String("error_kind", kind))
}

// FromContext retrieves the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger returns a context carrying logger, retrievable via FromContext.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
