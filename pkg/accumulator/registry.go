package accumulator

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/streambuf/internal/logger"
	"github.com/marmos91/streambuf/pkg/bufpool"
)

// Default registry settings.
const (
	DefaultSessionTimeout   = 30 * time.Minute
	DefaultMaxContentLength = 1 << 20
	DefaultCleanFixedRate   = time.Minute
	DefaultCleanBatchSize   = 100
)

// Config holds the tunables of a Registry and its Evictor.
type Config struct {
	// DefaultSessionTimeout is the idle duration after which a session is evicted.
	DefaultSessionTimeout time.Duration

	// MaxContentLength caps each channel buffer, in bytes. Zero disables the cap.
	MaxContentLength int

	// CleanFixedRate is the evictor sweep interval.
	CleanFixedRate time.Duration

	// CleanBatchSize is the maximum number of users visited per sweep.
	// Zero or negative visits every user.
	CleanBatchSize int

	// BufferPoolSize is the maximum number of pooled buffers.
	BufferPoolSize int

	// BufferInitialCapacity is the capacity of a freshly allocated buffer, in bytes.
	BufferInitialCapacity int
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultSessionTimeout: DefaultSessionTimeout,
		MaxContentLength:      DefaultMaxContentLength,
		CleanFixedRate:        DefaultCleanFixedRate,
		CleanBatchSize:        DefaultCleanBatchSize,
		BufferPoolSize:        bufpool.DefaultSize,
		BufferInitialCapacity: bufpool.DefaultInitialCapacity,
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics sets the metrics collector. nil disables collection.
func WithMetrics(m Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithPool makes the registry borrow buffers from an existing pool instead
// of building one from Config.
func WithPool(p *bufpool.Pool) Option {
	return func(r *Registry) {
		r.pool = p
	}
}

// WithPoolMetrics sets the metrics collector of the pool built from Config.
// It has no effect together with WithPool.
func WithPoolMetrics(m bufpool.Metrics) Option {
	return func(r *Registry) {
		r.poolMetrics = m
	}
}

// WithClock replaces time.Now as the source of session timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// userSessions is the per-user sub-map.
//
// pruned is set once the sub-map has been unlinked from the registry. A
// pruned sub-map is never written again; Init retries against a fresh one.
type userSessions struct {
	mu       sync.RWMutex
	sessions map[int64]*entry
	pruned   bool
}

// Registry is the two-level user → session → entry store.
//
// The outer level is a sync.Map so lookups for different users never contend.
// The inner level is guarded by a per-user RWMutex, held only for map lookups
// and mutations and never together with an entry lock.
type Registry struct {
	users sync.Map // int64 -> *userSessions

	pool        *bufpool.Pool
	poolMetrics bufpool.Metrics
	metrics     Metrics
	now         func() time.Time

	defaultTimeout   atomic.Int64 // nanoseconds
	maxContentLength atomic.Int64
	cleanBatchSize   int

	// Advisory counters; they may briefly disagree with the maps.
	activeUsers    atomic.Int64
	activeSessions atomic.Int64

	appends        atomic.Uint64
	appendFailures atomic.Uint64
	invalidKeys    atomic.Uint64
	notFound       atomic.Uint64
	finalized      atomic.Uint64
	evicted        atomic.Uint64

	sweepMu sync.Mutex
	pending []int64 // users not yet visited in the current sweep round
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config, opts ...Option) *Registry {
	r := &Registry{
		now:            time.Now,
		cleanBatchSize: cfg.CleanBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}

	if cfg.DefaultSessionTimeout <= 0 {
		cfg.DefaultSessionTimeout = DefaultSessionTimeout
	}
	if cfg.MaxContentLength < 0 {
		cfg.MaxContentLength = 0
	}
	r.defaultTimeout.Store(int64(cfg.DefaultSessionTimeout))
	r.maxContentLength.Store(int64(cfg.MaxContentLength))

	if r.pool == nil {
		r.pool = bufpool.NewPool(&bufpool.Config{
			Size:            cfg.BufferPoolSize,
			InitialCapacity: cfg.BufferInitialCapacity,
		}, r.poolMetrics)
	}

	return r
}

// Pool returns the buffer pool backing the registry.
func (r *Registry) Pool() *bufpool.Pool {
	return r.pool
}

// DefaultTimeout returns the idle timeout applied by Init.
func (r *Registry) DefaultTimeout() time.Duration {
	return time.Duration(r.defaultTimeout.Load())
}

// MaxContentLength returns the per-channel byte cap. Zero means unlimited.
func (r *Registry) MaxContentLength() int {
	return int(r.maxContentLength.Load())
}

// SetLimits updates the default session timeout and the content cap at
// runtime. Non-positive timeout and negative maxContentLength are ignored.
// Existing sessions keep the timeout they were opened with.
func (r *Registry) SetLimits(timeout time.Duration, maxContentLength int) {
	if timeout > 0 {
		r.defaultTimeout.Store(int64(timeout))
	}
	if maxContentLength >= 0 {
		r.maxContentLength.Store(int64(maxContentLength))
	}
	logger.Info("Accumulator limits updated",
		logger.KeyTimeout, r.DefaultTimeout(),
		logger.KeyMaxLength, r.MaxContentLength())
}

// ============================================================================
// Session lifecycle
// ============================================================================

// Init opens a session with the default timeout. It is idempotent: calling it
// on an open session leaves the session and its content untouched.
// It returns false only for invalid keys.
func (r *Registry) Init(userID, sessionID int64) bool {
	return r.InitWithTimeout(userID, sessionID, 0)
}

// InitWithTimeout is Init with a per-session idle timeout. A non-positive
// timeout selects the registry default. The timeout of an already open
// session is not changed.
func (r *Registry) InitWithTimeout(userID, sessionID int64, timeout time.Duration) bool {
	if !validKey(userID, sessionID) {
		logger.Debug("Init rejected", logger.KeyUserID, userID, logger.KeySessionID, sessionID,
			logger.KeyReason, ReasonInvalidKey)
		return r.miss(OpInit, ReasonInvalidKey)
	}
	if timeout <= 0 {
		timeout = r.DefaultTimeout()
	}

	for {
		us := r.loadOrCreateUser(userID)

		us.mu.Lock()
		if us.pruned {
			// Unlinked between load and lock; retry against the new sub-map.
			us.mu.Unlock()
			continue
		}

		existing, ok := us.sessions[sessionID]
		if ok && !existing.isFinalized() {
			us.mu.Unlock()
			return true
		}

		// A finalized leftover is replaced in place; its remover will find a
		// different entry under the key and leave the map alone.
		us.sessions[sessionID] = newEntry(userID, sessionID, r.pool, r.now(), timeout)
		if !ok {
			r.activeSessions.Add(1)
		}
		us.mu.Unlock()

		logger.Debug("Session opened", logger.KeyUserID, userID, logger.KeySessionID, sessionID,
			logger.KeyTimeout, timeout)
		r.recordActive()
		return true
	}
}

// Append adds text to the given channel of an open session.
//
// It returns false, leaving the session unchanged, if a key is invalid, ch is
// ChannelUnknown, text is empty, the session does not exist, or the channel
// would exceed the content cap. It panics for out-of-range channels.
func (r *Registry) Append(userID, sessionID int64, text string, ch Channel) bool {
	if !validKey(userID, sessionID) {
		return r.failAppend(ch, ReasonInvalidKey)
	}
	if !ch.mustCheck() {
		return r.failAppend(ch, ReasonInvalidChannel)
	}
	if text == "" {
		return r.failAppend(ch, ReasonEmptyText)
	}

	_, e := r.lookup(userID, sessionID)
	if e == nil {
		return r.failAppend(ch, ReasonNotFound)
	}

	e.mu.Lock()
	if e.isFinalized() {
		e.mu.Unlock()
		return r.failAppend(ch, ReasonFinalized)
	}

	maxLen := r.maxContentLength.Load()
	if current := e.length(ch); maxLen > 0 && int64(current)+int64(len(text)) > maxLen {
		e.mu.Unlock()
		logger.Warn("Append rejected: content length limit exceeded",
			logger.KeyUserID, userID,
			logger.KeySessionID, sessionID,
			logger.KeyChannel, ch.String(),
			logger.KeyLength, current,
			logger.KeyBytes, len(text),
			logger.KeyMaxLength, maxLen)
		return r.failAppend(ch, ReasonCapacityExceeded)
	}

	e.slot(ch).WriteString(text)
	e.touch(r.now())
	e.mu.Unlock()

	r.appends.Add(1)
	if r.metrics != nil {
		r.metrics.RecordAppend(ch, true, "", len(text))
	}
	return true
}

// GetContent returns the accumulated text of a channel, or "" if the session
// does not exist.
//
// Reading ChannelThinking leaves the session open. Reading ChannelReply
// finalizes it: both buffers go back to the pool and the session is removed.
// It panics for out-of-range channels.
func (r *Registry) GetContent(userID, sessionID int64, ch Channel) string {
	if !validKey(userID, sessionID) {
		r.miss(OpGetContent, ReasonInvalidKey)
		return ""
	}
	if !ch.mustCheck() {
		r.miss(OpGetContent, ReasonInvalidChannel)
		return ""
	}

	us, e := r.lookup(userID, sessionID)
	if e == nil {
		r.miss(OpGetContent, ReasonNotFound)
		return ""
	}

	destructive := ch == ChannelReply

	e.mu.Lock()
	if e.isFinalized() {
		e.mu.Unlock()
		r.miss(OpGetContent, ReasonNotFound)
		return ""
	}
	text := e.text(ch)
	if destructive {
		e.release()
	}
	e.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordRead(ch, destructive)
	}
	if destructive {
		r.remove(us, e)
		r.recordFinalize(e, FinalizeRead)
	}
	return text
}

// Clear finalizes a session without reading it. It returns false if the
// session does not exist.
func (r *Registry) Clear(userID, sessionID int64) bool {
	if !validKey(userID, sessionID) {
		return r.miss(OpClear, ReasonInvalidKey)
	}
	us, e := r.lookup(userID, sessionID)
	if e == nil || !r.finalize(us, e, FinalizeClear, nil) {
		return r.miss(OpClear, ReasonNotFound)
	}
	return true
}

// ClearAll finalizes every session of a user and returns how many were removed.
func (r *Registry) ClearAll(userID int64) int {
	if userID <= 0 {
		r.miss(OpClearAll, ReasonInvalidKey)
		return 0
	}
	v, ok := r.users.Load(userID)
	if !ok {
		r.miss(OpClearAll, ReasonNotFound)
		return 0
	}
	us := v.(*userSessions)

	cleared := 0
	for _, e := range us.snapshot(nil) {
		if r.finalize(us, e, FinalizeClear, nil) {
			cleared++
		}
	}
	r.pruneIfEmpty(userID, us)

	if cleared > 0 {
		logger.Debug("Cleared user sessions", logger.KeyUserID, userID, logger.KeyCount, cleared)
	}
	return cleared
}

// Shutdown finalizes every session in the registry and returns how many
// were removed. The registry stays usable afterwards.
func (r *Registry) Shutdown() int {
	total := 0
	r.users.Range(func(k, v any) bool {
		us := v.(*userSessions)
		for _, e := range us.snapshot(nil) {
			if r.finalize(us, e, FinalizeShutdown, nil) {
				total++
			}
		}
		r.pruneIfEmpty(k.(int64), us)
		return true
	})
	logger.Info("Accumulator shut down", logger.KeyCount, total)
	return total
}

// Reclaim drops both buffer handles of a session without returning them to
// the pool, as a memory-pressure event would. The content is lost; the next
// append starts from an empty buffer. It returns false if the session does
// not exist.
func (r *Registry) Reclaim(userID, sessionID int64) bool {
	if !validKey(userID, sessionID) {
		return r.miss(OpReclaim, ReasonInvalidKey)
	}
	_, e := r.lookup(userID, sessionID)
	if e == nil {
		return r.miss(OpReclaim, ReasonNotFound)
	}

	e.mu.Lock()
	if e.isFinalized() {
		e.mu.Unlock()
		return r.miss(OpReclaim, ReasonNotFound)
	}
	e.reclaim()
	e.mu.Unlock()
	logger.Debug("Session buffers reclaimed", logger.KeyUserID, userID, logger.KeySessionID, sessionID)
	return true
}

// ============================================================================
// Probes
// ============================================================================

// SessionInfo describes an open session.
type SessionInfo struct {
	UserID         int64         `json:"user_id" yaml:"user_id"`
	SessionID      int64         `json:"session_id" yaml:"session_id"`
	ThinkingLength int           `json:"thinking_length" yaml:"thinking_length"`
	ReplyLength    int           `json:"reply_length" yaml:"reply_length"`
	CreatedAt      time.Time     `json:"created_at" yaml:"created_at"`
	LastActiveAt   time.Time     `json:"last_active_at" yaml:"last_active_at"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
}

// Exists reports whether a session is open.
func (r *Registry) Exists(userID, sessionID int64) bool {
	if !validKey(userID, sessionID) {
		return false
	}
	_, e := r.lookup(userID, sessionID)
	return e != nil && !e.isFinalized()
}

// Length returns the byte length of a channel and whether the session exists.
func (r *Registry) Length(userID, sessionID int64, ch Channel) (int, bool) {
	if !ch.mustCheck() {
		return 0, false
	}
	info, ok := r.Inspect(userID, sessionID)
	if !ok {
		return 0, false
	}
	if ch == ChannelThinking {
		return info.ThinkingLength, true
	}
	return info.ReplyLength, true
}

// Inspect returns a snapshot of an open session without modifying it.
func (r *Registry) Inspect(userID, sessionID int64) (SessionInfo, bool) {
	if !validKey(userID, sessionID) {
		return SessionInfo{}, false
	}
	_, e := r.lookup(userID, sessionID)
	if e == nil {
		return SessionInfo{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.isFinalized() {
		return SessionInfo{}, false
	}
	return SessionInfo{
		UserID:         userID,
		SessionID:      sessionID,
		ThinkingLength: e.length(ChannelThinking),
		ReplyLength:    e.length(ChannelReply),
		CreatedAt:      e.createdAt,
		LastActiveAt:   e.lastActiveAt(),
		Timeout:        e.timeout,
	}, true
}

// ============================================================================
// Internals
// ============================================================================

func validKey(userID, sessionID int64) bool {
	return userID > 0 && sessionID > 0
}

func (r *Registry) loadOrCreateUser(userID int64) *userSessions {
	if v, ok := r.users.Load(userID); ok {
		return v.(*userSessions)
	}
	fresh := &userSessions{sessions: make(map[int64]*entry)}
	v, loaded := r.users.LoadOrStore(userID, fresh)
	if !loaded {
		r.activeUsers.Add(1)
	}
	return v.(*userSessions)
}

func (r *Registry) lookup(userID, sessionID int64) (*userSessions, *entry) {
	v, ok := r.users.Load(userID)
	if !ok {
		return nil, nil
	}
	us := v.(*userSessions)
	us.mu.RLock()
	e := us.sessions[sessionID]
	us.mu.RUnlock()
	return us, e
}

// snapshot returns the entries of a user matching keep (all if keep is nil).
func (us *userSessions) snapshot(keep func(*entry) bool) []*entry {
	us.mu.RLock()
	defer us.mu.RUnlock()
	out := make([]*entry, 0, len(us.sessions))
	for _, e := range us.sessions {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// finalize releases e and removes it from the registry. cond, if set, is
// re-evaluated under the entry lock and must hold for the finalize to proceed.
// It returns false if e was already finalized or cond failed.
func (r *Registry) finalize(us *userSessions, e *entry, reason string, cond func(*entry) bool) bool {
	e.mu.Lock()
	if e.isFinalized() || (cond != nil && !cond(e)) {
		e.mu.Unlock()
		return false
	}
	e.release()
	e.mu.Unlock()

	r.remove(us, e)
	r.recordFinalize(e, reason)
	return true
}

// remove unlinks a finalized entry, pruning the user sub-map if it becomes
// empty. The entry is only deleted if it is still the one stored under its key.
func (r *Registry) remove(us *userSessions, e *entry) {
	us.mu.Lock()
	if current, ok := us.sessions[e.sessionID]; ok && current == e {
		delete(us.sessions, e.sessionID)
		r.activeSessions.Add(-1)
	}
	r.pruneLocked(e.userID, us)
	us.mu.Unlock()
	r.recordActive()
}

func (r *Registry) pruneIfEmpty(userID int64, us *userSessions) {
	us.mu.Lock()
	r.pruneLocked(userID, us)
	us.mu.Unlock()
}

// pruneLocked unlinks us if it is empty. Caller must hold us.mu.
func (r *Registry) pruneLocked(userID int64, us *userSessions) {
	if us.pruned || len(us.sessions) > 0 {
		return
	}
	us.pruned = true
	if r.users.CompareAndDelete(userID, us) {
		r.activeUsers.Add(-1)
	}
}

func (r *Registry) failAppend(ch Channel, reason string) bool {
	r.appendFailures.Add(1)
	r.countMiss(reason)
	if r.metrics != nil {
		r.metrics.RecordAppend(ch, false, reason, 0)
	}
	return false
}

// miss counts a rejected non-append operation. It always returns false.
func (r *Registry) miss(op, reason string) bool {
	r.countMiss(reason)
	if r.metrics != nil {
		r.metrics.RecordMiss(op, reason)
	}
	return false
}

// countMiss bumps the Stats totals. A session finalized between lookup and
// lock counts as not found.
func (r *Registry) countMiss(reason string) {
	switch reason {
	case ReasonInvalidKey:
		r.invalidKeys.Add(1)
	case ReasonNotFound, ReasonFinalized:
		r.notFound.Add(1)
	}
}

func (r *Registry) recordFinalize(e *entry, reason string) {
	r.finalized.Add(1)
	if reason == FinalizeEvict {
		r.evicted.Add(1)
	}
	logger.Debug("Session finalized",
		logger.KeyUserID, e.userID,
		logger.KeySessionID, e.sessionID,
		logger.KeyReason, reason)
	if r.metrics != nil {
		r.metrics.RecordFinalize(reason, r.now().Sub(e.createdAt))
	}
}

func (r *Registry) recordActive() {
	if r.metrics != nil {
		r.metrics.RecordActive(r.activeUsers.Load(), r.activeSessions.Load())
	}
}
