package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

type eventEntry struct {
	kind string
	eid  uint32
	msg  string
}

type recordingEventLog struct {
	entries []eventEntry
}

func (l *recordingEventLog) Info(eid uint32, msg string) error {
	l.entries = append(l.entries, eventEntry{"info", eid, msg})
	return nil
}

func (l *recordingEventLog) Warning(eid uint32, msg string) error {
	l.entries = append(l.entries, eventEntry{"warning", eid, msg})
	return nil
}

func (l *recordingEventLog) Error(eid uint32, msg string) error {
	l.entries = append(l.entries, eventEntry{"error", eid, msg})
	return nil
}

func TestEventLogHandlerMapsLevels(t *testing.T) {
	rec := &recordingEventLog{}
	logger := slog.New(NewEventLogHandler(rec, slog.LevelInfo)).With("target", "lpd")

	logger.Debug("hidden")
	logger.Info("monitoring started")
	logger.Warn("service stopped; attempting start", "status", "stopped")
	logger.Error("could not start service")

	want := []string{"info", "warning", "error"}
	if len(rec.entries) != len(want) {
		t.Fatalf("entries = %+v, want %d", rec.entries, len(want))
	}
	for i, kind := range want {
		if rec.entries[i].kind != kind {
			t.Fatalf("entry %d kind = %q, want %q", i, rec.entries[i].kind, kind)
		}
	}
	msg := rec.entries[1].msg
	if !strings.Contains(msg, "target=lpd") || !strings.Contains(msg, "status=stopped") {
		t.Fatalf("warning entry = %q", msg)
	}
	if strings.Contains(msg, "time=") || strings.Contains(msg, "\n") {
		t.Fatalf("entry should be a single line without a timestamp: %q", msg)
	}
}

func TestFanoutWritesToEveryHandler(t *testing.T) {
	rec := &recordingEventLog{}
	var buf bytes.Buffer
	logger := slog.New(Fanout(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		NewEventLogHandler(rec, slog.LevelWarn),
	))

	logger.Info("tick")
	logger.Warn("cooling down")

	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Fatalf("text handler lines = %d, want 2:\n%s", got, buf.String())
	}
	if len(rec.entries) != 1 || rec.entries[0].kind != "warning" {
		t.Fatalf("event log entries = %+v", rec.entries)
	}
}
