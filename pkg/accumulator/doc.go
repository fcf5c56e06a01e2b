// Package accumulator collects incrementally arriving chat stream fragments
// per (user, session) until the stream ends.
//
// A Registry maps user IDs to their open sessions. Each session holds two
// independent channels: ChannelThinking for intermediate reasoning output and
// ChannelReply for the final answer. The streaming transport opens a session
// with Init, forwards every delta with Append, and at stream end reads
// ChannelThinking (non-destructive) followed by ChannelReply (destructive:
// the session is finalized and its buffers go back to the pool). Clear and
// ClearAll abort streams without reading them.
//
// # Concurrency
//
// Each session owns an exclusive lock that serializes Append, GetContent,
// Clear and eviction for that session. Sessions of different users never
// share a lock; sessions of the same user only share a short map lookup.
// The session lock is never held across I/O.
//
// # Failure Semantics
//
// Routine misuse (non-positive keys, unknown sessions, empty fragments,
// oversized content, ChannelUnknown) never returns an error: operations report
// false or an empty string and increment a failure metric, so one bad fragment
// cannot abort the caller's streaming loop. Out-of-range Channel values and
// double release of a session's buffers are programming errors and panic.
//
// # Eviction
//
// An Evictor periodically calls CleanTimeoutSessions, which visits at most
// CleanBatchSize users per sweep and finalizes sessions idle for longer than
// their timeout. Consecutive sweeps resume where the previous one stopped.
package accumulator
