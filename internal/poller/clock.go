package poller

import "time"

// Ticker delivers clock pulses on C until Stop is called.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock is the scheduler's only source of time.
//
// The scheduler reads Now for the start timestamp and drives every periodic
// concern from the pulses of a single Ticker created with NewTicker.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// SystemClock is a [Clock] backed by the time package.
type SystemClock struct{}

// Now returns the current wall time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// NewTicker returns a [Ticker] backed by [time.NewTicker].
func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// OrdinalDay returns the day number of t counted from the Unix epoch in t's
// location. Unlike YearDay it keeps increasing across a year boundary, so the
// difference between two ordinal days is always a day count.
func OrdinalDay(t time.Time) int {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(midnight.Unix() / 86400)
}
