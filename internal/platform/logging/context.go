package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var defaultLogger = slog.Default()

// SetDefault replaces the fallback logger and the slog default.
func SetDefault(logger *slog.Logger) {
	defaultLogger = logger
	slog.SetDefault(logger)
}

// FromContext returns the request logger in ctx, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOr(ctx, defaultLogger)
}

// FromContextOr returns the logger stored in ctx, or fallback when there is none.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx == nil {
		return fallback
	}

	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}

	return fallback
}

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func withAttrs(ctx context.Context, attrs ...any) context.Context {
	return WithContext(ctx, FromContext(ctx).With(attrs...))
}

// WithRequestID tags the request logger with the X-Request-ID value.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withAttrs(ctx, slog.String("request_id", requestID))
}

// WithCorrelationID tags the request logger with the X-Correlation-ID value.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return withAttrs(ctx, slog.String("correlation_id", correlationID))
}

// WithTraceID tags the request logger with the active trace.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return withAttrs(ctx, slog.String("trace_id", traceID))
}

// WithUser tags the request logger with the authenticated staff member.
func WithUser(ctx context.Context, userID, role string) context.Context {
	return withAttrs(ctx, slog.String("user_id", userID), slog.String("user_role", role))
}

// WithCall tags the logger with the call being processed.
func WithCall(ctx context.Context, callID string) context.Context {
	return withAttrs(ctx, slog.String("call_id", callID))
}
