package accumulator

import "github.com/marmos91/streambuf/pkg/bufpool"

// Stats is a point-in-time view of registry activity.
//
// ActiveUsers and ActiveSessions are advisory: they are maintained next to,
// not atomically with, the map mutations and may briefly lag behind them.
type Stats struct {
	ActiveUsers      int64         `json:"active_users" yaml:"active_users"`
	ActiveSessions   int64         `json:"active_sessions" yaml:"active_sessions"`
	Appends          uint64        `json:"appends" yaml:"appends"`
	AppendFailures   uint64        `json:"append_failures" yaml:"append_failures"`
	InvalidKeys      uint64        `json:"invalid_keys" yaml:"invalid_keys"`
	NotFound         uint64        `json:"not_found" yaml:"not_found"`
	Finalized        uint64        `json:"finalized" yaml:"finalized"`
	Evicted          uint64        `json:"evicted" yaml:"evicted"`
	MaxContentLength int           `json:"max_content_length" yaml:"max_content_length"`
	Pool             bufpool.Stats `json:"pool" yaml:"pool"`
}

// Stats returns current registry statistics.
func (r *Registry) Stats() Stats {
	return Stats{
		ActiveUsers:      r.activeUsers.Load(),
		ActiveSessions:   r.activeSessions.Load(),
		Appends:          r.appends.Load(),
		AppendFailures:   r.appendFailures.Load(),
		InvalidKeys:      r.invalidKeys.Load(),
		NotFound:         r.notFound.Load(),
		Finalized:        r.finalized.Load(),
		Evicted:          r.evicted.Load(),
		MaxContentLength: r.MaxContentLength(),
		Pool:             r.pool.Stats(),
	}
}

// ActiveUsers returns the advisory number of users with open sessions.
func (r *Registry) ActiveUsers() int64 {
	return r.activeUsers.Load()
}

// ActiveSessions returns the advisory number of open sessions.
func (r *Registry) ActiveSessions() int64 {
	return r.activeSessions.Load()
}
