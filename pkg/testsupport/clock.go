package testsupport

import (
	"sync"
	"time"
)

// Clock is a manually driven clock for expiry tests. Pass its Now method
// wherever a func() time.Time is accepted.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock stopped at start. A zero start uses a fixed date
// so test output is stable.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	}
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
