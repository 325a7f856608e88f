package testutil

import (
	"sync"
	"time"
)

// Clock is a settable clock for tests that move time between commands.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts the clock at the given date (YYYY-MM-DD, UTC).
func NewClock(date string) *Clock {
	return &Clock{now: MustDate(date)}
}

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

// Set jumps to the given date.
func (c *Clock) Set(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = MustDate(date)
}

// MustDate parses YYYY-MM-DD as midnight UTC and panics on malformed input.
func MustDate(date string) time.Time {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(err)
	}
	return t
}
