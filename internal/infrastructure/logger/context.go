package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// BackendIDKey is the context key for the backend a job or request acts on
	BackendIDKey contextKey = "backend_id"
	// OperationKey is the context key for the sync operation name
	OperationKey contextKey = "operation"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if
// not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns the enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithBackend scopes the context logger to a backend. Every sync job runs
// under one of these.
func WithBackend(ctx context.Context, logger *zap.Logger, backendID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, BackendIDKey, backendID)
	enriched := logger.With(zap.String("backend_id", backendID))
	return WithContext(ctx, enriched), enriched
}

// WithOperation scopes the context logger to a sync operation name.
func WithOperation(ctx context.Context, logger *zap.Logger, operation string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, OperationKey, operation)
	enriched := logger.With(zap.String("operation", operation))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetBackendID retrieves the backend ID from context
func GetBackendID(ctx context.Context) string {
	if backendID, ok := ctx.Value(BackendIDKey).(string); ok {
		return backendID
	}
	return ""
}

// WithTraceContext adds trace_id and span_id to the logger from the
// context's span. If no valid span exists, returns the logger unchanged.
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	span := trace.SpanFromContext(ctx)
	if span == nil {
		return logger
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}

// L returns the context logger enriched with trace correlation and the
// request/backend scoping fields present in the context.
func L(ctx context.Context) *zap.Logger {
	l := WithTraceContext(ctx, FromContext(ctx))
	if requestID := GetRequestID(ctx); requestID != "" {
		l = l.With(zap.String("request_id", requestID))
	}
	if backendID := GetBackendID(ctx); backendID != "" {
		l = l.With(zap.String("backend_id", backendID))
	}
	return l
}
