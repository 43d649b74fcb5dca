package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Verify CLIHooks implements Hooks at compile time.
var _ Hooks = (*CLIHooks)(nil)

// CLIHooks implements Hooks for CLI observability.
// It supports configurable verbosity levels:
//   - 0: Silent (collect stats only, no output)
//   - 1: Operations only
//   - 2: Operations + requests
//
// Failures are also reported to the structured logger, when one is set,
// regardless of level.
type CLIHooks struct {
	mu        sync.Mutex
	level     int
	collector *SessionCollector
	writer    *TraceWriter
	logger    *slog.Logger
}

// NewCLIHooks creates a new CLIHooks with the given verbosity level.
// If collector is nil, metrics are not collected.
// If writer is nil, no trace output is produced.
func NewCLIHooks(level int, collector *SessionCollector, writer *TraceWriter) *CLIHooks {
	return &CLIHooks{
		level:     level,
		collector: collector,
		writer:    writer,
	}
}

// WithLogger attaches a structured logger for failure reporting.
func (h *CLIHooks) WithLogger(logger *slog.Logger) *CLIHooks {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logger = logger
	return h
}

// SetLevel changes the verbosity level at runtime.
func (h *CLIHooks) SetLevel(level int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.level = level
}

// Level returns the current verbosity level.
func (h *CLIHooks) Level() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level
}

func (h *CLIHooks) snapshot() (int, *SessionCollector, *TraceWriter, *slog.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level, h.collector, h.writer, h.logger
}

// OnOperationStart is called when a semantic client operation begins.
func (h *CLIHooks) OnOperationStart(ctx context.Context, op OperationInfo) context.Context {
	level, _, writer, _ := h.snapshot()

	if level >= 1 && writer != nil {
		writer.WriteOperationStart(op)
	}

	return ctx
}

// OnOperationEnd is called when a semantic client operation completes.
func (h *CLIHooks) OnOperationEnd(ctx context.Context, op OperationInfo, err error, duration time.Duration) {
	level, collector, writer, logger := h.snapshot()

	if collector != nil {
		collector.RecordOperation(OperationMetrics{
			Service:   op.Service,
			Operation: op.Operation,
			Duration:  duration,
			Error:     err,
		})
	}

	if level >= 1 && writer != nil {
		writer.WriteOperationEnd(op, err, duration)
	}

	if err != nil && logger != nil {
		logger.WarnContext(ctx, "operation failed",
			"service", op.Service,
			"operation", op.Operation,
			"duration", duration,
			"error", err)
	}
}

// OnRequestStart is called before an HTTP request is sent.
func (h *CLIHooks) OnRequestStart(ctx context.Context, info RequestInfo) context.Context {
	level, _, writer, _ := h.snapshot()

	if level >= 2 && writer != nil {
		writer.WriteRequestStart(info)
	}

	return ctx
}

// OnRequestEnd is called after an HTTP request completes.
func (h *CLIHooks) OnRequestEnd(ctx context.Context, info RequestInfo, result RequestResult) {
	level, collector, writer, logger := h.snapshot()

	if collector != nil {
		collector.RecordRequest(RequestMetrics{
			Method:     info.Method,
			URL:        info.URL,
			StatusCode: result.StatusCode,
			Duration:   result.Duration,
			Error:      result.Error,
		})
	}

	if level >= 2 && writer != nil {
		writer.WriteRequestEnd(info, result)
	}

	if logger != nil {
		logger.DebugContext(ctx, "http request",
			"method", info.Method,
			"url", scrubURL(info.URL),
			"status", result.StatusCode,
			"duration", result.Duration)
	}
}
