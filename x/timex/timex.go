package timex

import "time"

// Clock is the single time source for settle delays, polling loops and
// deadlines. Everything that waits goes through it.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time        { return time.Now() }
func (System) Sleep(d time.Duration) { time.Sleep(d) }

// Or returns c, or the system clock when c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return System{}
	}
	return c
}

// Deadline is a fixed point in time measured against a Clock.
type Deadline struct {
	c  Clock
	at time.Time
}

// After arms a deadline d from now.
func After(c Clock, d time.Duration) Deadline {
	c = Or(c)
	return Deadline{c: c, at: c.Now().Add(d)}
}

// Expired reports whether the deadline has passed.
func (d Deadline) Expired() bool { return !d.c.Now().Before(d.at) }

// Remaining returns the time left, never negative.
func (d Deadline) Remaining() time.Duration {
	r := d.at.Sub(d.c.Now())
	if r < 0 {
		return 0
	}
	return r
}
