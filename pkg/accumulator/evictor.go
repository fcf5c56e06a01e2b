package accumulator

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/streambuf/internal/logger"
	"github.com/marmos91/streambuf/internal/telemetry"
)

// Sweeper is the registry surface the Evictor drives.
type Sweeper interface {
	CleanTimeoutSessions() SweepResult
}

// Evictor runs CleanTimeoutSessions on a fixed interval in its own goroutine,
// separate from request handling.
type Evictor struct {
	sweeper  Sweeper
	interval time.Duration

	mu        sync.Mutex
	started   bool
	stopped   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewEvictor creates an evictor that sweeps every interval.
// A non-positive interval selects DefaultCleanFixedRate.
func NewEvictor(sweeper Sweeper, interval time.Duration) *Evictor {
	if interval <= 0 {
		interval = DefaultCleanFixedRate
	}
	return &Evictor{
		sweeper:   sweeper,
		interval:  interval,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Interval returns the sweep interval.
func (ev *Evictor) Interval() time.Duration {
	return ev.interval
}

// Start launches the sweep loop. It returns immediately; calling it more
// than once has no effect. The loop exits when ctx is cancelled or Stop is called.
func (ev *Evictor) Start(ctx context.Context) {
	ev.mu.Lock()
	if ev.started || ev.stopped {
		ev.mu.Unlock()
		return
	}
	ev.started = true
	ev.mu.Unlock()

	logger.Info("Starting session evictor", logger.KeyInterval, ev.interval)

	go ev.run(ctx)
}

// Stop signals the loop to exit and waits up to timeout for it to finish.
// A sweep in progress is allowed to complete.
func (ev *Evictor) Stop(timeout time.Duration) {
	ev.mu.Lock()
	if !ev.started || ev.stopped {
		ev.stopped = true
		ev.mu.Unlock()
		return
	}
	ev.stopped = true
	ev.mu.Unlock()

	close(ev.stopCh)

	select {
	case <-ev.stoppedCh:
		logger.Info("Session evictor stopped")
	case <-time.After(timeout):
		logger.Warn("Session evictor stop timed out", logger.KeyTimeout, timeout)
	}
}

// SweepNow runs one sweep synchronously inside a trace span.
func (ev *Evictor) SweepNow(ctx context.Context) SweepResult {
	ctx, span := telemetry.StartSweepSpan(ctx)
	defer span.End()

	result := ev.sweeper.CleanTimeoutSessions()

	telemetry.SetAttributes(ctx,
		telemetry.VisitedUsers(result.VisitedUsers),
		telemetry.Evicted(result.Evicted),
		telemetry.RoundComplete(result.RoundComplete))
	return result
}

func (ev *Evictor) run(ctx context.Context) {
	defer close(ev.stoppedCh)

	ticker := time.NewTicker(ev.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ev.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			ev.SweepNow(ctx)
		}
	}
}
