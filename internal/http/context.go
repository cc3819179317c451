package http

import (
	"context"
	"log/slog"

	"github.com/Olawill/church-transport-application-sub001/internal/application"
	"github.com/Olawill/church-transport-application-sub001/internal/logging"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	requestIDContextKey contextKey = "request_id"
	serviceIDContextKey contextKey = "service_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithRequestID injects the transport request identifier resolved from the path.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext extracts a transport request identifier from the context.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}

// ContextWithServiceID injects the service definition identifier resolved from the path.
func ContextWithServiceID(ctx context.Context, serviceID string) context.Context {
	return context.WithValue(ctx, serviceIDContextKey, serviceID)
}

// ServiceIDFromContext extracts a service definition identifier from the context.
func ServiceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(serviceIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request-scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext retrieves a request-scoped logger, if one was attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// defaultLogger falls back to the process-wide logger when a handler was
// constructed without one.
func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// handlerLogger resolves the request-scoped logger and tags it with the
// handler name and operation, e.g. RequestHandler/Create.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	tagged := logger.With("handler", handlerName)
	if operation != "" {
		tagged = tagged.With("operation", operation)
	}
	if len(attrs) > 0 {
		tagged = tagged.With(attrs...)
	}
	return tagged
}
