//go:build windows

package logging

import (
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sys/windows/svc/eventlog"
)

// OpenEventLog registers source with the Windows Event Log if needed and
// returns a handler writing to it.
func OpenEventLog(source string, level slog.Leveler) (slog.Handler, io.Closer, error) {
	// Fails when the source is already registered, which is the common case.
	_ = eventlog.InstallAsEventCreate(source, eventlog.Error|eventlog.Warning|eventlog.Info)

	l, err := eventlog.Open(source)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log %s: %w", source, err)
	}
	return NewEventLogHandler(l, level), l, nil
}
