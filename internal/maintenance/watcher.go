package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher logs when the maintenance marker appears or disappears. It is
// informational only; the Gate never consults it.
type Watcher struct {
	path   string
	logger *slog.Logger
}

// NewWatcher creates a watcher for the marker at path.
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: filepath.Clean(path), logger: logger}
}

// Run watches the marker's directory until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create marker watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("maintenance marker watch error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	switch {
	case ev.Has(fsnotify.Create):
		w.logger.Info("maintenance marker created", "path", w.path)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.logger.Info("maintenance marker removed", "path", w.path)
	}
}
