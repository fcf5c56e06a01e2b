package accumulator

import (
	"sync"
	"time"
)

// fakeClock is a manually advanced clock for eviction tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordingMetrics counts calls for assertions.
type recordingMetrics struct {
	mu        sync.Mutex
	appendsOK int
	failures  map[string]int
	misses    map[string]int // "op/reason"
	reads     map[Channel]int
	finalized map[string]int
	sweeps    int
	evicted   int
	users     int64
	sessions  int64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		failures:  make(map[string]int),
		misses:    make(map[string]int),
		reads:     make(map[Channel]int),
		finalized: make(map[string]int),
	}
}

func (m *recordingMetrics) RecordAppend(_ Channel, ok bool, reason string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.appendsOK++
		return
	}
	m.failures[reason]++
}

func (m *recordingMetrics) RecordRead(ch Channel, _ bool) {
	m.mu.Lock()
	m.reads[ch]++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordMiss(op, reason string) {
	m.mu.Lock()
	m.misses[op+"/"+reason]++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordFinalize(reason string, _ time.Duration) {
	m.mu.Lock()
	m.finalized[reason]++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordSweep(_, evicted int, _ time.Duration) {
	m.mu.Lock()
	m.sweeps++
	m.evicted += evicted
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordActive(users, sessions int64) {
	m.mu.Lock()
	m.users, m.sessions = users, sessions
	m.mu.Unlock()
}

func (m *recordingMetrics) failure(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[reason]
}

func (m *recordingMetrics) miss(op, reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.misses[op+"/"+reason]
}

func (m *recordingMetrics) finalize(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finalized[reason]
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DefaultSessionTimeout = time.Minute
	cfg.MaxContentLength = 64
	cfg.BufferPoolSize = 4
	cfg.BufferInitialCapacity = 16
	return cfg
}
