// Package limiter counts recent successful restarts in a sliding window.
package limiter

import "time"

// RestartLimiter records restart timestamps and answers whether the burst
// threshold has been reached. A timestamp is retained while it is strictly
// newer than now-window; one exactly window old is gone.
//
// A RestartLimiter belongs to a single watchdog loop and is not safe for
// concurrent use.
type RestartLimiter struct {
	max    int
	window time.Duration
	stamps []time.Time
}

// New returns a limiter that bursts once maxRestarts fall inside window.
func New(maxRestarts int, window time.Duration) *RestartLimiter {
	if maxRestarts < 1 {
		maxRestarts = 1
	}
	return &RestartLimiter{max: maxRestarts, window: window}
}

// Record appends now and drops stale entries.
func (l *RestartLimiter) Record(now time.Time) {
	l.stamps = append(l.stamps, now)
	l.prune(now)
}

// IsBursting drops stale entries and reports whether the remaining count
// has reached the threshold.
func (l *RestartLimiter) IsBursting(now time.Time) bool {
	l.prune(now)
	return len(l.stamps) >= l.max
}

// Count drops stale entries and returns how many remain.
func (l *RestartLimiter) Count(now time.Time) int {
	l.prune(now)
	return len(l.stamps)
}

func (l *RestartLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	kept := l.stamps[:0]
	for _, ts := range l.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	// Clear the tail so dropped entries do not pin the backing array.
	for i := len(kept); i < len(l.stamps); i++ {
		l.stamps[i] = time.Time{}
	}
	l.stamps = kept
}
