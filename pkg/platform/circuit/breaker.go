// Package circuit counts consecutive failures of a dependency and opens
// after a threshold, so callers can fail fast while the dependency is down.
package circuit

import (
	"sync"
	"time"

	"qualityaudit/pkg/platform/clock"
)

type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// StateChange reports a transition caused by the last recorded outcome.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker is safe for concurrent use.
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	clock            clock.Clock

	mu           sync.Mutex
	state        State
	failureCount int
	successCount int
	openedAt     time.Time
}

type Option func(*Breaker)

func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithCooldown sets how long an open breaker rejects calls before letting
// trial calls through.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(b *Breaker) {
		if c != nil {
			b.clock = c
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 2,
		cooldown:         30 * time.Second,
		clock:            clock.System{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Allow reports whether a call may reach the dependency. An open breaker
// allows trial calls once the cooldown since the last failure has passed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return true
	}
	return !b.clock.Now().Before(b.openedAt.Add(b.cooldown))
}

// RecordFailure returns true when callers should use their fallback.
func (b *Breaker) RecordFailure() (bool, StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount++
	b.successCount = 0
	if b.state == StateOpen {
		b.openedAt = b.clock.Now()
		return true, StateChange{}
	}
	if b.failureCount >= b.failureThreshold {
		b.state = StateOpen
		b.openedAt = b.clock.Now()
		return true, StateChange{Opened: true}
	}
	return false, StateChange{}
}

// RecordSuccess returns true when callers may use the primary again.
func (b *Breaker) RecordSuccess() (bool, StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen {
		b.successCount++
		if b.successCount < b.successThreshold {
			return false, StateChange{}
		}
		b.close()
		return true, StateChange{Closed: true}
	}
	b.failureCount = 0
	return true, StateChange{}
}

// Reset closes the breaker and clears both counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.close()
}

func (b *Breaker) close() {
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.openedAt = time.Time{}
}
