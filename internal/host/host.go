// Package host ties the watchdog to the process that runs it: graceful
// shutdown, service-manager notifications and the single-instance lock.
package host

import (
	"context"
	"log/slog"
	"sync"
)

// Host implements the watchdog's shutdown request by cancelling the
// process context. Only the first request cancels; later ones are counted.
type Host struct {
	cancel   context.CancelFunc
	notifier Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	requests int
	reason   string
}

// New returns a Host that calls cancel on the first shutdown request.
func New(cancel context.CancelFunc, notifier Notifier, logger *slog.Logger) *Host {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{cancel: cancel, notifier: notifier, logger: logger}
}

// RequestShutdown asks the process to stop. It is safe to call from any
// goroutine and more than once.
func (h *Host) RequestShutdown(reason string) {
	h.mu.Lock()
	h.requests++
	first := h.requests == 1
	if first {
		h.reason = reason
	}
	h.mu.Unlock()

	if !first {
		h.logger.Debug("shutdown already requested", "reason", reason)
		return
	}
	h.logger.Info("shutdown requested", "reason", reason)
	h.notifier.Stopping()
	if h.cancel != nil {
		h.cancel()
	}
}

// ShutdownRequests reports how many times shutdown was requested.
func (h *Host) ShutdownRequests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests
}

// Reason returns the reason given with the first shutdown request.
func (h *Host) Reason() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason
}
