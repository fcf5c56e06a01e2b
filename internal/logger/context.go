package logger

import (
	"context"
	"log/slog"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	RequestID string    // HTTP request ID (chi middleware)
	Operation string    // Admin operation name (stats, clear, sweep, etc.)
	ClientIP  string    // Client IP address (without port)
	UserID    int64     // Stream owner
	SessionID int64     // Chat session
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext with the given client IP
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithOperation returns a copy with the operation set
func (lc *LogContext) WithOperation(op string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Operation = op
	}
	return clone
}

// WithSession returns a copy bound to a (user, session) key.
// A zero sessionID binds the user only.
func (lc *LogContext) WithSession(userID, sessionID int64) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.UserID = userID
		clone.SessionID = sessionID
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// Attrs returns the non-empty fields as slog attributes, tracing
// identifiers first.
func (lc *LogContext) Attrs() []slog.Attr {
	if lc == nil {
		return nil
	}
	attrs := make([]slog.Attr, 0, 7)
	if lc.TraceID != "" {
		attrs = append(attrs, TraceID(lc.TraceID))
	}
	if lc.SpanID != "" {
		attrs = append(attrs, SpanID(lc.SpanID))
	}
	if lc.RequestID != "" {
		attrs = append(attrs, RequestID(lc.RequestID))
	}
	if lc.Operation != "" {
		attrs = append(attrs, Operation(lc.Operation))
	}
	if lc.ClientIP != "" {
		attrs = append(attrs, ClientIP(lc.ClientIP))
	}
	if lc.UserID != 0 {
		attrs = append(attrs, UserID(lc.UserID))
	}
	if lc.SessionID != 0 {
		attrs = append(attrs, SessionID(lc.SessionID))
	}
	return attrs
}

// Elapsed returns the time since StartTime, or zero when unset.
func (lc *LogContext) Elapsed() time.Duration {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return time.Since(lc.StartTime)
}
