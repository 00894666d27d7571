// Package clock abstracts the time operations the watchdog suspends on so
// tests can drive the loop deterministically.
//
// Production code uses Real(). Tests use Fake(), which only moves when
// Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go loop.Run(ctx)
//	c.WaitForTimers(1)        // loop is parked in its sleep
//	c.Advance(5 * time.Second) // wake it up
package clock

import "time"

// Clock is the subset of the time package used by the watchdog.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d has
	// elapsed. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
