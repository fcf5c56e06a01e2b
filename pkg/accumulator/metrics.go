package accumulator

import "time"

// Failure reasons reported to Metrics.RecordAppend and Metrics.RecordMiss.
const (
	ReasonInvalidKey       = "invalid_key"
	ReasonNotFound         = "not_found"
	ReasonEmptyText        = "empty_text"
	ReasonCapacityExceeded = "capacity_exceeded"
	ReasonInvalidChannel   = "invalid_channel"
	ReasonFinalized        = "finalized"
)

// Operations reported to Metrics.RecordMiss.
const (
	OpInit       = "init"
	OpGetContent = "get_content"
	OpClear      = "clear"
	OpClearAll   = "clear_all"
	OpReclaim    = "reclaim"
)

// Finalize reasons reported to Metrics.RecordFinalize.
const (
	FinalizeRead     = "read"
	FinalizeClear    = "clear"
	FinalizeEvict    = "evict"
	FinalizeShutdown = "shutdown"
)

// Metrics provides observability for registry operations.
//
// This is optional. A nil Metrics disables collection with zero overhead.
// Implementations must be safe for concurrent use.
type Metrics interface {
	// RecordAppend records an append attempt. reason is empty on success.
	RecordAppend(channel Channel, ok bool, reason string, bytes int)

	// RecordRead records a GetContent call that found a session.
	RecordRead(channel Channel, destructive bool)

	// RecordMiss records a non-append operation rejected for an invalid key
	// or a missing session. Append failures go to RecordAppend instead.
	RecordMiss(op, reason string)

	// RecordFinalize records a session leaving the registry and its lifetime.
	RecordFinalize(reason string, lifetime time.Duration)

	// RecordSweep records one eviction sweep.
	RecordSweep(visitedUsers, evicted int, duration time.Duration)

	// RecordActive records the advisory active user and session counts.
	RecordActive(users, sessions int64)
}
