package ccl

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with ccl-specific context. This provides
// structured logging with consistent field names across the partitioner,
// propagator, aggregator, and orchestrator.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithModule adds a module_id field to the logger.
func (l *Logger) WithModule(moduleID uint64) *Logger {
	return &Logger{Logger: l.Logger.With("module_id", moduleID)}
}

// WithPartition adds partition range fields to the logger.
func (l *Logger) WithPartition(start, end int) *Logger {
	return &Logger{Logger: l.Logger.With("partition_start", start, "partition_end", end)}
}

// LogPartition logs the result of splitting one batch into partitions.
func (l *Logger) LogPartition(ctx context.Context, moduleID uint64, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "partitioning failed", "module_id", moduleID, "error", err)
		return
	}
	l.DebugContext(ctx, "partitioned module", "module_id", moduleID, "partitions", count)
}

// LogPropagate logs one partition's Fast-SV convergence.
func (l *Logger) LogPropagate(ctx context.Context, moduleID uint64, start, end, iterations int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "label propagation failed",
			"module_id", moduleID, "partition_start", start, "partition_end", end, "error", err)
		return
	}
	l.DebugContext(ctx, "label propagation converged",
		"module_id", moduleID, "partition_start", start, "partition_end", end, "iterations", iterations)
}

// LogAggregate logs one partition's aggregation outcome.
func (l *Logger) LogAggregate(ctx context.Context, moduleID uint64, start, end, measurements int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "aggregation failed",
			"module_id", moduleID, "partition_start", start, "partition_end", end, "error", err)
		return
	}
	l.DebugContext(ctx, "aggregation completed",
		"module_id", moduleID, "partition_start", start, "partition_end", end, "measurements", measurements)
}

// LogOrchestrate logs the outcome of one Process call across every batch.
func (l *Logger) LogOrchestrate(ctx context.Context, batches, measurements int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "process failed", "batches", batches, "error", err)
		return
	}
	l.InfoContext(ctx, "process completed", "batches", batches, "measurements", measurements)
}
