//go:build windows

package host

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/sys/windows/svc"
)

func nextState(t *testing.T, status <-chan svc.Status) svc.State {
	t.Helper()
	select {
	case s := <-status:
		return s.State
	case <-time.After(2 * time.Second):
		t.Fatal("no status reported")
		return 0
	}
}

type executeResult struct {
	specific bool
	code     uint32
}

func TestSCMHandlerStopCancelsRun(t *testing.T) {
	requests := make(chan svc.ChangeRequest)
	status := make(chan svc.Status, 8)
	h := &scmHandler{run: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}}

	done := make(chan executeResult, 1)
	go func() {
		specific, code := h.Execute(nil, requests, status)
		done <- executeResult{specific, code}
	}()

	if s := nextState(t, status); s != svc.StartPending {
		t.Fatalf("first state = %d, want StartPending", s)
	}
	if s := nextState(t, status); s != svc.Running {
		t.Fatalf("second state = %d, want Running", s)
	}

	requests <- svc.ChangeRequest{Cmd: svc.Stop}

	select {
	case res := <-done:
		if res.specific || res.code != 0 {
			t.Fatalf("exit = %+v, want clean", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after Stop")
	}
	if h.err != nil {
		t.Fatalf("run error = %v", h.err)
	}
}

func TestSCMHandlerRunExitStopsService(t *testing.T) {
	requests := make(chan svc.ChangeRequest)
	status := make(chan svc.Status, 8)
	boom := errors.New("boom")
	h := &scmHandler{run: func(context.Context) error { return boom }}

	specific, code := h.Execute(nil, requests, status)
	if !specific || code != 1 {
		t.Fatalf("exit = (%v, %d), want service-specific 1", specific, code)
	}
	if !errors.Is(h.err, boom) {
		t.Fatalf("run error = %v", h.err)
	}
}
