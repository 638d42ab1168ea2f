package testutil

import (
	"sync"
	"time"
)

// TestNow is the default start time of test clocks: a Tuesday afternoon.
var TestNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

// Clock is a settable clock for deterministic day boundaries.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// AddDays moves the clock by n calendar days.
func (c *Clock) AddDays(n int) {
	c.mu.Lock()
	c.now = c.now.AddDate(0, 0, n)
	c.mu.Unlock()
}
