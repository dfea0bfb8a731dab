package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across the gateway.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRequestID    = "request_id"
	FieldTraceID      = "trace_id"
	FieldConnectionID = "connection_id"
	FieldSessionID    = "session_id"
	FieldAccount      = "account"

	// Components
	FieldComponent = "component"
	FieldEvent     = "event"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError     = "error"
	FieldErrorKind = "error_kind"

	// Network
	FieldAddress = "address"
	FieldPort    = "port"
	FieldNodeURL = "node_url"
	FieldPeerURL = "peer_url"

	// Directory
	FieldDirectoryKey = "directory_key"
)

// Context keys for propagating logging context
type contextKey string

const (
	requestIDKey    contextKey = "logger_request_id"
	traceIDKey      contextKey = "logger_trace_id"
	connectionIDKey contextKey = "logger_connection_id"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithTraceID adds a trace ID to the context for logging
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// WithConnectionID adds a connection id to the context for logging
func WithConnectionID(ctx context.Context, connID string) context.Context {
	return context.WithValue(ctx, connectionIDKey, connID)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		fields = append(fields, FieldTraceID, traceID)
	}
	if connID, ok := ctx.Value(connectionIDKey).(string); ok && connID != "" {
		fields = append(fields, FieldConnectionID, connID)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
