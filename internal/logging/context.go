package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCorrelationID is the standardized structured logging key for per-connection identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldRemoteAddr is the standardized structured logging key for the client address.
	FieldRemoteAddr = "remote_addr"
	// FieldTask is the standardized structured logging key for the requested task.
	FieldTask = "task"
	// FieldContainerID is the standardized structured logging key for container identifiers.
	FieldContainerID = "container_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step for an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes what a warning means for the client.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldRunID identifies one daemon run across all of its log lines.
	FieldRunID = "run_id"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	remoteAddrKey    contextKey = "remote_addr"
	taskKey          contextKey = "task"
)

// WithCorrelationID stores the connection correlation identifier in ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return withString(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns the correlation identifier stored in ctx.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, correlationIDKey)
}

// WithRemoteAddr stores the client address in ctx.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return withString(ctx, remoteAddrKey, addr)
}

// WithTask stores the requested task in ctx.
func WithTask(ctx context.Context, task string) context.Context {
	return withString(ctx, taskKey, task)
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	return value, ok && value != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := stringFrom(ctx, correlationIDKey); ok {
		fields = append(fields, slog.String(FieldCorrelationID, id))
	}
	if addr, ok := stringFrom(ctx, remoteAddrKey); ok {
		fields = append(fields, slog.String(FieldRemoteAddr, addr))
	}
	if task, ok := stringFrom(ctx, taskKey); ok {
		fields = append(fields, slog.String(FieldTask, task))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
