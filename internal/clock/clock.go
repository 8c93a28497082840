// Package clock provides an injectable source of the current time so that
// calendar-day rules (streaks, inactivity tiers, cache expiry) can be tested
// deterministically.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Real is a Clock backed by time.Now.
type Real struct{}

// Now returns the wall-clock time.
func (Real) Now() time.Time { return time.Now() }

// New returns the wall clock.
func New() Clock { return Real{} }

// Mock is a settable Clock for tests. It is safe for concurrent use.
type Mock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMock returns a Mock frozen at t.
func NewMock(t time.Time) *Mock {
	return &Mock{now: t}
}

// Now returns the frozen time.
func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set moves the clock to t.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

// Now calls f.
func (f Func) Now() time.Time { return f() }
