package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// EventSource is the Windows Event Log source the watchdog registers.
const EventSource = "servicewatchdog"

// eventID is the single event identifier used for every record.
const eventID = 1

// EventWriter is the subset of the Windows event log API the handler
// needs.
type EventWriter interface {
	Info(eid uint32, msg string) error
	Warning(eid uint32, msg string) error
	Error(eid uint32, msg string) error
}

// eventLogHandler renders each record as a text line and writes it to the
// event log entry type matching its level.
type eventLogHandler struct {
	mu    *sync.Mutex
	buf   *bytes.Buffer
	inner slog.Handler
	out   EventWriter
}

// NewEventLogHandler returns a handler that writes records to w.
func NewEventLogHandler(w EventWriter, level slog.Leveler) slog.Handler {
	buf := &bytes.Buffer{}
	return &eventLogHandler{
		mu:  &sync.Mutex{},
		buf: buf,
		inner: slog.NewTextHandler(buf, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				// The event log stamps entries itself.
				if len(groups) == 0 && a.Key == slog.TimeKey {
					return slog.Attr{}
				}
				return a
			},
		}),
		out: w,
	}
}

func (h *eventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *eventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	msg := strings.TrimSpace(h.buf.String())
	switch {
	case r.Level >= slog.LevelError:
		return h.out.Error(eventID, msg)
	case r.Level >= slog.LevelWarn:
		return h.out.Warning(eventID, msg)
	default:
		return h.out.Info(eventID, msg)
	}
}

func (h *eventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &eventLogHandler{mu: h.mu, buf: h.buf, inner: h.inner.WithAttrs(attrs), out: h.out}
}

func (h *eventLogHandler) WithGroup(name string) slog.Handler {
	return &eventLogHandler{mu: h.mu, buf: h.buf, inner: h.inner.WithGroup(name), out: h.out}
}

// fanout sends every record to all handlers that accept its level.
type fanout []slog.Handler

// Fanout combines handlers into one.
func Fanout(handlers ...slog.Handler) slog.Handler {
	return fanout(handlers)
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
