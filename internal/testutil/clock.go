package testutil

import (
	"sync"
	"time"
)

// SteppingClock is a deterministic wall clock: every call to Now advances it
// by a fixed step from a fixed start.
//
// Safe for concurrent use.
type SteppingClock struct {
	mu    sync.Mutex
	next  time.Time
	step  time.Duration
	start time.Time
}

// NewSteppingClock creates a clock whose first Now returns start.
func NewSteppingClock(start time.Time, step time.Duration) *SteppingClock {
	return &SteppingClock{next: start, step: step, start: start}
}

// Now returns the current instant and advances the clock.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(c.step)
	return t
}

// Reset rewinds the clock to its start.
func (c *SteppingClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.start
}
