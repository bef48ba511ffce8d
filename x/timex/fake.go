package timex

import "time"

// Fake is a manual clock for tests and simulations. Sleep advances time
// instantly and records the requested durations.
type Fake struct {
	now    time.Time
	Sleeps []time.Duration
}

// NewFake starts a fake clock at t.
func NewFake(t time.Time) *Fake { return &Fake{now: t} }

func (f *Fake) Now() time.Time { return f.now }

func (f *Fake) Sleep(d time.Duration) {
	if d < 0 {
		d = 0
	}
	f.Sleeps = append(f.Sleeps, d)
	f.now = f.now.Add(d)
}

// Advance moves time forward without recording a sleep.
func (f *Fake) Advance(d time.Duration) { f.now = f.now.Add(d) }

// Slept returns the sum of all recorded sleeps.
func (f *Fake) Slept() time.Duration {
	var total time.Duration
	for _, d := range f.Sleeps {
		total += d
	}
	return total
}
