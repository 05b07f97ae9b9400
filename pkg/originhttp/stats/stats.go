// Package stats holds the process-wide connection counters the system
// lane reports: how many connections the listener has ever accepted and
// how many are currently open. Grounded on the teacher's own per-server
// accept/active counters, kept here as a standalone component so both
// the server (which updates them) and a route handler (which reads
// them) can hold a pointer without importing each other.
package stats

import "sync/atomic"

// Stats is safe for concurrent use.
type Stats struct {
	accepted atomic.Int64
	active   atomic.Int64
}

// New returns a zeroed Stats.
func New() *Stats {
	return &Stats{}
}

// Accept records a newly accepted connection.
func (s *Stats) Accept() {
	s.accepted.Add(1)
	s.active.Add(1)
}

// Close records a connection reaching Closing.
func (s *Stats) Close() {
	s.active.Add(-1)
}

// Accepted returns the lifetime accepted-connection count.
func (s *Stats) Accepted() int64 { return s.accepted.Load() }

// Active returns the current open-connection count.
func (s *Stats) Active() int64 { return s.active.Load() }
