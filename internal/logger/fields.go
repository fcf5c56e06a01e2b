package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Session Identification
	// ========================================================================
	KeyUserID    = "user_id"    // Stream owner
	KeySessionID = "session_id" // Chat session within a user
	KeyChannel   = "channel"    // thinking or reply

	// ========================================================================
	// Accumulator
	// ========================================================================
	KeyLength    = "length"     // Current channel length in bytes
	KeyBytes     = "bytes"      // Fragment size in bytes
	KeyMaxLength = "max_length" // Per-channel length cap in bytes
	KeyReason    = "reason"     // Failure or finalize reason
	KeyTimeout   = "timeout"    // Session idle timeout
	KeyCount     = "count"      // Number of sessions affected
	KeyVisited   = "visited"    // Users visited by a sweep
	KeyInterval  = "interval"   // Sweep interval
	KeyIdle      = "idle"       // Idle pooled buffers
	KeyPoolSize  = "pool_size"  // Pool capacity

	// ========================================================================
	// HTTP
	// ========================================================================
	KeyRequestID = "request_id"
	KeyClientIP  = "client_ip"
	KeyMethod    = "method"
	KeyPath      = "path"
	KeyStatus    = "status"
	KeyAddr      = "addr"
	KeyPort      = "port"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDuration   = "duration"    // time.Duration
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyOperation  = "operation"   // Sub-operation type
	KeyInstanceID = "instance_id" // Process instance identifier
	KeyConfigPath = "config_path" // Config file in use
)

// ============================================================================
// Attribute helpers
// ============================================================================

// TraceID returns a trace_id attribute
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a span_id attribute
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// UserID returns a user_id attribute
func UserID(id int64) slog.Attr {
	return slog.Int64(KeyUserID, id)
}

// SessionID returns a session_id attribute
func SessionID(id int64) slog.Attr {
	return slog.Int64(KeySessionID, id)
}

// Channel returns a channel attribute
func Channel(name string) slog.Attr {
	return slog.String(KeyChannel, name)
}

// Reason returns a reason attribute
func Reason(r string) slog.Attr {
	return slog.String(KeyReason, r)
}

// Count returns a count attribute
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Timeout returns a timeout attribute
func Timeout(d time.Duration) slog.Attr {
	return slog.Duration(KeyTimeout, d)
}

// RequestID returns a request_id attribute
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ClientIP returns a client_ip attribute
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// DurationMs returns a duration_ms attribute
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns an error attribute. A nil error yields an empty attribute.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Operation returns an operation attribute
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}
