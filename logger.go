package geoscore

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with geoscore-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogLoad logs a catalog load attempt.
func (l *Logger) LogLoad(ctx context.Context, generation uint64, regions, scores int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "catalog load failed",
			"generation", generation,
			"duration", duration,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "catalog load completed",
			"generation", generation,
			"regions", regions,
			"scores", scores,
			"duration", duration,
		)
	}
}

// LogLocate logs a single-point lookup.
func (l *Logger) LogLocate(ctx context.Context, lat, lon float64, regionID string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "locate failed",
			"lat", lat,
			"lon", lon,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "locate completed",
			"lat", lat,
			"lon", lon,
			"region_id", regionID,
		)
	}
}

// LogBatch logs a batch lookup.
func (l *Logger) LogBatch(ctx context.Context, count, resolved, failed int, duration time.Duration) {
	l.DebugContext(ctx, "batch locate completed",
		"count", count,
		"resolved", resolved,
		"failed", failed,
		"duration", duration,
	)
}
