package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// TenantIDKey is the context key for tenant ID
	TenantIDKey contextKey = "tenant_id"
	// SourceRefKey is the context key for the document source locator
	SourceRefKey contextKey = "source_ref"
	// SystemCodeKey is the context key for the upstream system code
	SystemCodeKey contextKey = "system_code"
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

// WithTenantID adds tenant ID to context and returns enriched logger
func WithTenantID(ctx context.Context, logger *zap.Logger, tenantID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, TenantIDKey, tenantID)
	enriched := logger.With(zap.String("tenant_id", tenantID))
	return WithContext(ctx, enriched), enriched
}

// WithSourceRef adds the document source locator to context and returns
// enriched logger. Every log line produced while ingesting a document can
// then be tied back to the exact message that caused it.
func WithSourceRef(ctx context.Context, logger *zap.Logger, sourceRef string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, SourceRefKey, sourceRef)
	enriched := logger.With(zap.String("source_ref", sourceRef))
	return WithContext(ctx, enriched), enriched
}

// WithSystemCode adds the upstream system code to context and returns
// enriched logger
func WithSystemCode(ctx context.Context, logger *zap.Logger, systemCode string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, SystemCodeKey, systemCode)
	enriched := logger.With(zap.String("system_code", systemCode))
	return WithContext(ctx, enriched), enriched
}

// GetTenantID retrieves tenant ID from context
func GetTenantID(ctx context.Context) string {
	if tenantID, ok := ctx.Value(TenantIDKey).(string); ok {
		return tenantID
	}
	return ""
}

// GetSourceRef retrieves the document source locator from context
func GetSourceRef(ctx context.Context) string {
	if sourceRef, ok := ctx.Value(SourceRefKey).(string); ok {
		return sourceRef
	}
	return ""
}

// GetSystemCode retrieves the upstream system code from context
func GetSystemCode(ctx context.Context) string {
	if systemCode, ok := ctx.Value(SystemCodeKey).(string); ok {
		return systemCode
	}
	return ""
}

// ContextLogger provides convenient logging that automatically injects
// tenant_id, system_code and source_ref from the context into every entry.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger from the given context.
// Usage: logger.L(ctx).Info("message", zap.String("key", "value"))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{
		ctx:    ctx,
		logger: FromContext(ctx),
	}
}

// WithLogger returns a ContextLogger using the provided logger instead of
// extracting from context. Useful when you have a pre-configured logger.
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	return &ContextLogger{
		ctx:    ctx,
		logger: logger,
	}
}

// enrichedLogger returns a logger enriched with the ingestion context fields
func (cl *ContextLogger) enrichedLogger() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}
	if tenantID := GetTenantID(cl.ctx); tenantID != "" {
		l = l.With(zap.String("tenant_id", tenantID))
	}
	if systemCode := GetSystemCode(cl.ctx); systemCode != "" {
		l = l.With(zap.String("system_code", systemCode))
	}
	if sourceRef := GetSourceRef(cl.ctx); sourceRef != "" {
		l = l.With(zap.String("source_ref", sourceRef))
	}
	return l
}

// With creates a child ContextLogger with additional fields.
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{
		ctx:    cl.ctx,
		logger: cl.logger.With(fields...),
	}
}

// Debug logs a debug level message with ingestion context.
func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Debug(msg, fields...)
}

// Info logs an info level message with ingestion context.
func (cl *ContextLogger) Info(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Info(msg, fields...)
}

// Warn logs a warning level message with ingestion context.
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Warn(msg, fields...)
}

// Error logs an error level message with ingestion context.
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Error(msg, fields...)
}

// Fatal logs a fatal level message and then calls os.Exit(1).
func (cl *ContextLogger) Fatal(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Fatal(msg, fields...)
}

// Zap returns the underlying zap.Logger enriched with ingestion context.
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.enrichedLogger()
}
