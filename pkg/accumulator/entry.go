package accumulator

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/streambuf/pkg/bufpool"
)

// entry is the mutable record of one open session.
//
// The slot handles may be nil: a slot is borrowed lazily on first write and
// dropped by reclaim under memory pressure. A nil handle reads as empty and
// is re-borrowed from the pool on the next write.
//
// All slot access requires mu. lastActive and finalized are atomic so the
// evictor can pre-filter candidates without taking the lock; the decision to
// evict is always re-checked under mu.
type entry struct {
	userID    int64
	sessionID int64
	pool      *bufpool.Pool

	mu       sync.Mutex
	thinking *bytes.Buffer
	reply    *bytes.Buffer

	createdAt  time.Time
	lastActive atomic.Int64 // unix nanoseconds
	timeout    time.Duration
	finalized  atomic.Bool
}

func newEntry(userID, sessionID int64, pool *bufpool.Pool, now time.Time, timeout time.Duration) *entry {
	e := &entry{
		userID:    userID,
		sessionID: sessionID,
		pool:      pool,
		createdAt: now,
		timeout:   timeout,
	}
	e.lastActive.Store(now.UnixNano())
	return e
}

// slot returns the buffer for ch, borrowing one if the handle is empty.
// Caller must hold e.mu.
func (e *entry) slot(ch Channel) *bytes.Buffer {
	switch ch {
	case ChannelThinking:
		if e.thinking == nil {
			e.thinking = e.pool.Borrow()
		}
		return e.thinking
	case ChannelReply:
		if e.reply == nil {
			e.reply = e.pool.Borrow()
		}
		return e.reply
	default:
		panic(fmt.Sprintf("accumulator: unrecognized channel %d", int(ch)))
	}
}

// peek returns the buffer for ch without borrowing. Caller must hold e.mu.
func (e *entry) peek(ch Channel) *bytes.Buffer {
	switch ch {
	case ChannelThinking:
		return e.thinking
	case ChannelReply:
		return e.reply
	default:
		panic(fmt.Sprintf("accumulator: unrecognized channel %d", int(ch)))
	}
}

// text returns a copy of the content of ch. Caller must hold e.mu.
func (e *entry) text(ch Channel) string {
	buf := e.peek(ch)
	if buf == nil {
		return ""
	}
	return buf.String()
}

// length returns the content length of ch in bytes. Caller must hold e.mu.
func (e *entry) length(ch Channel) int {
	buf := e.peek(ch)
	if buf == nil {
		return 0
	}
	return buf.Len()
}

// release recycles both slots and marks the entry finalized.
// Caller must hold e.mu and must have checked isFinalized first.
func (e *entry) release() {
	if e.finalized.Swap(true) {
		panic(fmt.Sprintf("accumulator: buffers of session %d/%d released twice", e.userID, e.sessionID))
	}
	if e.thinking != nil {
		e.pool.Recycle(e.thinking)
		e.thinking = nil
	}
	if e.reply != nil {
		e.pool.Recycle(e.reply)
		e.reply = nil
	}
}

// reclaim drops both slot handles without returning them to the pool,
// discarding their content. Caller must hold e.mu.
func (e *entry) reclaim() {
	e.thinking = nil
	e.reply = nil
}

func (e *entry) isFinalized() bool {
	return e.finalized.Load()
}

// touch advances lastActive to now. It never moves backwards.
func (e *entry) touch(now time.Time) {
	next := now.UnixNano()
	for {
		prev := e.lastActive.Load()
		if next <= prev {
			return
		}
		if e.lastActive.CompareAndSwap(prev, next) {
			return
		}
	}
}

func (e *entry) lastActiveAt() time.Time {
	return time.Unix(0, e.lastActive.Load())
}

// expired reports whether the entry has been idle for longer than its timeout.
func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.lastActiveAt()) > e.timeout
}
