package limiter

import (
	"math/rand"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return epoch.Add(time.Duration(seconds) * time.Second)
}

func TestBurstDetectionAcrossWindow(t *testing.T) {
	l := New(3, 60*time.Second)
	for _, s := range []int{0, 10, 20} {
		l.Record(at(s))
	}

	if !l.IsBursting(at(25)) {
		t.Fatal("IsBursting(25) = false, want true with three restarts in window")
	}
	if l.IsBursting(at(61)) {
		t.Fatal("IsBursting(61) = true, want false once t=0 is stale")
	}
	if got := l.Count(at(61)); got != 2 {
		t.Fatalf("Count(61) = %d, want 2", got)
	}
}

func TestWindowBoundaryExcludesExactAge(t *testing.T) {
	l := New(1, 60*time.Second)
	l.Record(at(0))

	if !l.IsBursting(at(59)) {
		t.Fatal("entry 59s old should still count")
	}
	if l.IsBursting(at(60)) {
		t.Fatal("entry exactly one window old should be excluded")
	}
}

func TestIsBurstingIsIdempotent(t *testing.T) {
	l := New(2, 30*time.Second)
	l.Record(at(0))
	l.Record(at(5))

	now := at(20)
	first := l.IsBursting(now)
	second := l.IsBursting(now)
	if first != second {
		t.Fatalf("IsBursting not idempotent: %v then %v", first, second)
	}
	if !first {
		t.Fatal("IsBursting(20) = false, want true")
	}
}

func TestRecordPrunesStaleEntries(t *testing.T) {
	l := New(10, 10*time.Second)
	for s := 0; s < 100; s += 5 {
		l.Record(at(s))
	}
	if got := len(l.stamps); got != 2 {
		t.Fatalf("retained %d stamps after recording, want 2", got)
	}
}

func TestNewClampsThreshold(t *testing.T) {
	l := New(0, time.Minute)
	l.Record(at(0))
	if !l.IsBursting(at(1)) {
		t.Fatal("threshold below one should behave as one")
	}
}

// Any interleaving of Record and IsBursting must agree with a direct count
// of recorded timestamps newer than now-window.
func TestIsBurstingMatchesDirectCount(t *testing.T) {
	const (
		threshold = 3
		window    = 30 * time.Second
	)
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		l := New(threshold, window)
		var recorded []time.Time
		now := epoch
		for step := 0; step < 40; step++ {
			now = now.Add(time.Duration(rng.Intn(15)) * time.Second)
			if rng.Intn(2) == 0 {
				l.Record(now)
				recorded = append(recorded, now)
				continue
			}
			want := 0
			for _, ts := range recorded {
				if ts.After(now.Add(-window)) {
					want++
				}
			}
			if got := l.IsBursting(now); got != (want >= threshold) {
				t.Fatalf("trial %d step %d: IsBursting = %v, direct count %d", trial, step, got, want)
			}
		}
	}
}

func TestOutOfOrderRecordsStillCounted(t *testing.T) {
	l := New(2, 60*time.Second)
	l.Record(at(50))
	l.Record(at(5))

	if !l.IsBursting(at(55)) {
		t.Fatal("both entries are inside the window at t=55")
	}
	if l.IsBursting(at(70)) {
		t.Fatal("t=5 is stale at t=70 even though it was recorded last")
	}
}
