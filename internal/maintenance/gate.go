// Package maintenance implements the operator override that suspends
// restarts while a marker file is present.
package maintenance

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Gate reports whether restarts are suppressed by a maintenance marker.
// It never caches: every call inspects the filesystem so the operator can
// toggle the marker between ticks.
type Gate struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	lastErr string
}

// NewGate returns a gate for the marker at path. An empty path yields a
// gate that never suppresses.
func NewGate(path string, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{path: strings.TrimSpace(path), logger: logger}
}

// Path returns the configured marker location.
func (g *Gate) Path() string {
	return g.path
}

// IsSuppressed reports whether the marker exists as a regular file (or
// anything else that is not a directory). A path that cannot be inspected
// counts as absent; the failure is logged once until it changes.
func (g *Gate) IsSuppressed() bool {
	if g.path == "" {
		return false
	}
	info, err := os.Stat(g.path)
	switch {
	case err == nil:
		g.clearErr()
		return !info.IsDir()
	case errors.Is(err, fs.ErrNotExist):
		g.clearErr()
		return false
	}

	g.mu.Lock()
	first := g.lastErr != err.Error()
	g.lastErr = err.Error()
	g.mu.Unlock()
	if first {
		g.logger.Warn("cannot inspect maintenance marker; treating as absent",
			"path", g.path, "error", err)
	}
	return false
}

func (g *Gate) clearErr() {
	g.mu.Lock()
	g.lastErr = ""
	g.mu.Unlock()
}
