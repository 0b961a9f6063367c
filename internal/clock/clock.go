// Package clock supplies the wall time used for attendance days, in one
// configured location, and a settable clock for tests.
package clock

import (
	"sync"
	"time"
)

// Layouts used for attendance keys and display.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Clock supplies the server-authoritative current time.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in a fixed location.
type System struct {
	Location *time.Location
}

// NewSystem returns a wall clock for loc (UTC when nil).
func NewSystem(loc *time.Location) System {
	if loc == nil {
		loc = time.UTC
	}
	return System{Location: loc}
}

// Now returns the current time in the clock's location.
func (s System) Now() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

// Manual is a clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual starts a manual clock at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// DateKey formats t as the per-day attendance key.
func DateKey(t time.Time) string { return t.Format(DateLayout) }

// TimeOfDay formats t as HH:MM:SS.
func TimeOfDay(t time.Time) string { return t.Format(TimeLayout) }

// ISO formats t for server_time fields.
func ISO(t time.Time) string { return t.Format(time.RFC3339) }
