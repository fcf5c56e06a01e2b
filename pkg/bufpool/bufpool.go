// Package bufpool provides a bounded pool of reusable, growable text buffers.
//
// Streaming sessions accumulate text fragments into *bytes.Buffer values that
// are borrowed from the pool when a session first writes to a channel and are
// recycled when the session is finalized or evicted. Reusing buffers keeps
// the steady-state allocation rate close to zero for a server that opens and
// closes thousands of chat streams per minute.
//
// # Bounding
//
// The pool holds at most Size idle buffers. It is implemented as a buffered
// channel, so Borrow and Recycle never block:
//   - Borrow on an empty pool allocates a fresh buffer of InitialCapacity
//   - Recycle on a full pool drops the buffer for the GC to collect
//   - Recycle of a buffer that grew past 2x InitialCapacity drops it, so a
//     single oversized reply cannot pin a large allocation in the pool
//
// # Thread Safety
//
// All operations are safe for concurrent use without external locking.
//
// # Usage
//
//	pool := bufpool.NewPool(nil, nil)
//	buf := pool.Borrow()
//	buf.WriteString("partial reply")
//	pool.Recycle(buf)
package bufpool

import (
	"bytes"
	"sync/atomic"
)

// Default pool settings.
const (
	// DefaultSize is the default maximum number of idle buffers (256)
	DefaultSize = 256

	// DefaultInitialCapacity is the default capacity of a fresh buffer (4KB)
	DefaultInitialCapacity = 4 << 10

	// oversizeFactor bounds the capacity of a buffer that may be pooled again,
	// relative to the initial capacity.
	oversizeFactor = 2
)

// RecycleOutcome describes what happened to a buffer handed to Recycle.
type RecycleOutcome string

const (
	// RecyclePooled means the buffer was cleared and returned to the pool.
	RecyclePooled RecycleOutcome = "pooled"

	// RecycleOversized means the buffer grew past the pooling limit and was dropped.
	RecycleOversized RecycleOutcome = "oversized"

	// RecycleFull means the pool was at capacity and the buffer was dropped.
	RecycleFull RecycleOutcome = "full"

	// RecycleIgnored is returned for a nil buffer.
	RecycleIgnored RecycleOutcome = "ignored"
)

// Metrics receives pool activity. A nil Metrics disables collection.
type Metrics interface {
	// RecordBorrow records a Borrow call; reused is false when a fresh buffer was allocated
	RecordBorrow(reused bool)

	// RecordRecycle records the outcome of a Recycle call
	RecordRecycle(outcome RecycleOutcome)

	// RecordIdle records the number of idle buffers currently pooled
	RecordIdle(count int)
}

// Config holds configuration for creating a pool.
type Config struct {
	// Size is the maximum number of idle buffers kept (default: 256)
	Size int

	// InitialCapacity is the capacity of freshly allocated buffers (default: 4KB)
	InitialCapacity int
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		Size:            DefaultSize,
		InitialCapacity: DefaultInitialCapacity,
	}
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Idle            int    `json:"idle" yaml:"idle"`
	Size            int    `json:"size" yaml:"size"`
	InitialCapacity int    `json:"initial_capacity" yaml:"initial_capacity"`
	Allocated       uint64 `json:"allocated" yaml:"allocated"`
	Reused          uint64 `json:"reused" yaml:"reused"`
	Discarded       uint64 `json:"discarded" yaml:"discarded"`
}

// Pool is a fixed-capacity queue of reusable buffers.
type Pool struct {
	buffers         chan *bytes.Buffer
	initialCapacity int
	maxCapacity     int
	metrics         Metrics

	allocated atomic.Uint64
	reused    atomic.Uint64
	discarded atomic.Uint64
}

// NewPool creates a pool and preallocates Size buffers of InitialCapacity.
// If cfg is nil, default values are used. metrics may be nil.
func NewPool(cfg *Config, metrics Metrics) *Pool {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}

	size := cfg.Size
	if size <= 0 {
		size = DefaultSize
	}
	initialCapacity := cfg.InitialCapacity
	if initialCapacity <= 0 {
		initialCapacity = DefaultInitialCapacity
	}

	p := &Pool{
		buffers:         make(chan *bytes.Buffer, size),
		initialCapacity: initialCapacity,
		maxCapacity:     oversizeFactor * initialCapacity,
		metrics:         metrics,
	}

	for i := 0; i < size; i++ {
		p.buffers <- p.newBuffer()
	}
	p.recordIdle()

	return p
}

func (p *Pool) newBuffer() *bytes.Buffer {
	return bytes.NewBuffer(make([]byte, 0, p.initialCapacity))
}

// Borrow returns an empty buffer. It takes an idle buffer from the pool when
// one is available and allocates a new one otherwise. Borrow never blocks.
func (p *Pool) Borrow() *bytes.Buffer {
	select {
	case buf := <-p.buffers:
		buf.Reset()
		p.reused.Add(1)
		if p.metrics != nil {
			p.metrics.RecordBorrow(true)
		}
		p.recordIdle()
		return buf
	default:
		p.allocated.Add(1)
		if p.metrics != nil {
			p.metrics.RecordBorrow(false)
		}
		return p.newBuffer()
	}
}

// Recycle clears buf and offers it back to the pool.
//
// Reuse is best effort: buffers whose capacity exceeds twice the initial
// capacity are dropped, as are buffers returned while the pool is full.
// The caller must not use buf after Recycle. Nil buffers are ignored.
func (p *Pool) Recycle(buf *bytes.Buffer) RecycleOutcome {
	if buf == nil {
		return RecycleIgnored
	}

	buf.Reset()

	outcome := RecyclePooled
	if buf.Cap() > p.maxCapacity {
		outcome = RecycleOversized
	} else {
		select {
		case p.buffers <- buf:
		default:
			outcome = RecycleFull
		}
	}

	if outcome != RecyclePooled {
		p.discarded.Add(1)
	}
	if p.metrics != nil {
		p.metrics.RecordRecycle(outcome)
	}
	p.recordIdle()

	return outcome
}

// Idle returns the number of buffers currently waiting in the pool.
func (p *Pool) Idle() int {
	return len(p.buffers)
}

// Size returns the maximum number of idle buffers.
func (p *Pool) Size() int {
	return cap(p.buffers)
}

// InitialCapacity returns the capacity of freshly allocated buffers.
func (p *Pool) InitialCapacity() int {
	return p.initialCapacity
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Idle:            p.Idle(),
		Size:            p.Size(),
		InitialCapacity: p.initialCapacity,
		Allocated:       p.allocated.Load(),
		Reused:          p.reused.Load(),
		Discarded:       p.discarded.Load(),
	}
}

func (p *Pool) recordIdle() {
	if p.metrics != nil {
		p.metrics.RecordIdle(len(p.buffers))
	}
}
