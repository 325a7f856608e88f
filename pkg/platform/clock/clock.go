package clock

import "time"

// Clock returns the current instant. Domain code takes a Clock instead of
// calling time.Now so tests can pin time.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// Fixed always returns the same instant.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At }
