//go:build !windows

package logging

import (
	"errors"
	"io"
	"log/slog"
)

// OpenEventLog is only available on Windows.
func OpenEventLog(string, slog.Leveler) (slog.Handler, io.Closer, error) {
	return nil, nil, errors.New("windows event log is not available on this platform")
}
