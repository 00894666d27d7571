package host

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingNotifier struct {
	mu     sync.Mutex
	states []string
}

func (n *recordingNotifier) Ready()            { n.add("ready") }
func (n *recordingNotifier) Status(msg string) { n.add("status:" + msg) }
func (n *recordingNotifier) Stopping()         { n.add("stopping") }

func (n *recordingNotifier) add(s string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, s)
}

func TestRequestShutdownCancelsOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancels := 0
	notifier := &recordingNotifier{}
	h := New(func() { cancels++; cancel() }, notifier, discard())

	h.RequestShutdown("target missing")
	h.RequestShutdown("again")

	if ctx.Err() == nil {
		t.Fatal("context not cancelled")
	}
	if cancels != 1 {
		t.Fatalf("cancel called %d times, want 1", cancels)
	}
	if h.ShutdownRequests() != 2 {
		t.Fatalf("requests = %d, want 2", h.ShutdownRequests())
	}
	if h.Reason() != "target missing" {
		t.Fatalf("reason = %q", h.Reason())
	}
	if len(notifier.states) != 1 || notifier.states[0] != "stopping" {
		t.Fatalf("notifications = %v", notifier.states)
	}
}

func TestRequestShutdownConcurrent(t *testing.T) {
	var mu sync.Mutex
	cancels := 0
	h := New(func() { mu.Lock(); cancels++; mu.Unlock() }, nil, discard())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.RequestShutdown("race")
		}()
	}
	wg.Wait()

	if cancels != 1 || h.ShutdownRequests() != 16 {
		t.Fatalf("cancels = %d requests = %d", cancels, h.ShutdownRequests())
	}
}

func TestSystemdNotifierStates(t *testing.T) {
	var sent []string
	n := &SystemdNotifier{logger: discard(), send: func(_ bool, state string) (bool, error) {
		sent = append(sent, state)
		return false, nil
	}}
	n.Ready()
	n.Status("watching lpd")
	n.Stopping()

	want := []string{"READY=1", "STATUS=watching lpd", "STOPPING=1"}
	if len(sent) != len(want) {
		t.Fatalf("sent = %v, want %v", sent, want)
	}
	for i := range want {
		if sent[i] != want[i] {
			t.Fatalf("sent[%d] = %q, want %q", i, sent[i], want[i])
		}
	}
}

func TestSystemdNotifierSwallowsErrors(t *testing.T) {
	n := &SystemdNotifier{logger: discard(), send: func(bool, string) (bool, error) {
		return false, errors.New("socket gone")
	}}
	n.Ready()
}

func TestAcquireLockExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "watchdog.lock")

	first, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	if _, err := AcquireLock(path); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second lock error = %v, want ErrAlreadyRunning", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	again, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	_ = again.Release()
}
