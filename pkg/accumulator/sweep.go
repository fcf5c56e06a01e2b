package accumulator

import (
	"time"

	"github.com/marmos91/streambuf/internal/logger"
)

// SweepResult summarizes one CleanTimeoutSessions call.
type SweepResult struct {
	VisitedUsers int           `json:"visited_users" yaml:"visited_users"`
	Evicted      int           `json:"evicted" yaml:"evicted"`
	Duration     time.Duration `json:"duration" yaml:"duration"`

	// RoundComplete is true when every user present at the start of the
	// round has been visited, so the next sweep starts a new round.
	RoundComplete bool `json:"round_complete" yaml:"round_complete"`
}

// CleanTimeoutSessions evicts sessions idle for longer than their timeout.
//
// A round covers the users present when it starts; users that arrive later
// wait for the next round. At most CleanBatchSize users are visited per call,
// so repeated calls cover a large registry in several steps. Sweeps are
// serialized; eviction of a session holds only that session's lock and
// re-checks expiry under it, so a session touched after the sweep started
// survives.
func (r *Registry) CleanTimeoutSessions() SweepResult {
	r.sweepMu.Lock()
	defer r.sweepMu.Unlock()

	start := time.Now()
	now := r.now()
	batch := r.cleanBatchSize

	if len(r.pending) == 0 {
		r.users.Range(func(k, _ any) bool {
			r.pending = append(r.pending, k.(int64))
			return true
		})
	}

	var result SweepResult
	for len(r.pending) > 0 && (batch <= 0 || result.VisitedUsers < batch) {
		last := len(r.pending) - 1
		userID := r.pending[last]
		r.pending = r.pending[:last]

		v, ok := r.users.Load(userID)
		if !ok {
			// Pruned since the round started.
			continue
		}
		result.VisitedUsers++
		result.Evicted += r.evictUser(userID, v.(*userSessions), now)
	}

	result.RoundComplete = len(r.pending) == 0
	if result.RoundComplete {
		r.pending = nil
	}
	result.Duration = time.Since(start)

	if result.Evicted > 0 {
		logger.Info("Evicted idle sessions",
			logger.KeyCount, result.Evicted,
			logger.KeyVisited, result.VisitedUsers,
			logger.KeyDuration, result.Duration)
	} else {
		logger.Debug("Eviction sweep finished",
			logger.KeyVisited, result.VisitedUsers,
			logger.KeyDuration, result.Duration)
	}

	if r.metrics != nil {
		r.metrics.RecordSweep(result.VisitedUsers, result.Evicted, result.Duration)
	}
	r.recordActive()
	return result
}

func (r *Registry) evictUser(userID int64, us *userSessions, now time.Time) int {
	stale := func(e *entry) bool { return e.expired(now) }

	evicted := 0
	for _, e := range us.snapshot(stale) {
		if r.finalize(us, e, FinalizeEvict, stale) {
			evicted++
		}
	}
	r.pruneIfEmpty(userID, us)
	return evicted
}
