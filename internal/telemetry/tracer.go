package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for accumulator and admin spans.
const (
	AttrUserID    = "accumulator.user_id"
	AttrSessionID = "accumulator.session_id"
	AttrChannel   = "accumulator.channel"

	AttrVisitedUsers  = "accumulator.sweep.visited_users"
	AttrEvicted       = "accumulator.sweep.evicted"
	AttrRoundComplete = "accumulator.sweep.round_complete"

	AttrClientIP  = "client.ip"
	AttrRequestID = "http.request_id"
)

// Span names.
const (
	SpanSweep   = "accumulator.sweep"
	SpanClear   = "accumulator.clear"
	SpanAdminOp = "admin.request"
)

// UserID returns an attribute for the stream owner
func UserID(id int64) attribute.KeyValue {
	return attribute.Int64(AttrUserID, id)
}

// SessionID returns an attribute for the chat session
func SessionID(id int64) attribute.KeyValue {
	return attribute.Int64(AttrSessionID, id)
}

// Channel returns an attribute for a content channel name
func Channel(name string) attribute.KeyValue {
	return attribute.String(AttrChannel, name)
}

// VisitedUsers returns an attribute for the number of users a sweep visited
func VisitedUsers(n int) attribute.KeyValue {
	return attribute.Int(AttrVisitedUsers, n)
}

// Evicted returns an attribute for the number of sessions a sweep evicted
func Evicted(n int) attribute.KeyValue {
	return attribute.Int(AttrEvicted, n)
}

// RoundComplete returns an attribute telling whether a sweep finished a round
func RoundComplete(done bool) attribute.KeyValue {
	return attribute.Bool(AttrRoundComplete, done)
}

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// RequestID returns an attribute for the HTTP request ID
func RequestID(id string) attribute.KeyValue {
	return attribute.String(AttrRequestID, id)
}

// StartSweepSpan starts the span wrapping one eviction sweep.
func StartSweepSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanSweep, trace.WithAttributes(attrs...))
}

// StartSessionSpan starts a span for an operation on one session.
// A zero sessionID marks a user-wide operation.
func StartSessionSpan(ctx context.Context, name string, userID, sessionID int64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, 2+len(attrs))
	all = append(all, UserID(userID))
	if sessionID != 0 {
		all = append(all, SessionID(sessionID))
	}
	all = append(all, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(all...))
}
