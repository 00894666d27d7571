package events

import (
	"log/slog"

	"servicewatchdog/internal/models"
)

// Journal persists events.
type Journal interface {
	Append(models.Event) error
}

// Hub is the watchdog's event sink: each event is journaled and then
// pushed to live subscribers.
type Hub struct {
	journal Journal
	feed    *Broadcaster[models.Event]
	logger  *slog.Logger
}

// NewHub wires a journal and a live feed together. Either may be nil.
func NewHub(journal Journal, feed *Broadcaster[models.Event], logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{journal: journal, feed: feed, logger: logger}
}

// Publish journals and broadcasts event. Journal failures are logged and
// never block delivery.
func (h *Hub) Publish(event models.Event) {
	if h.journal != nil {
		if err := h.journal.Append(event); err != nil {
			h.logger.Warn("failed to journal event", "event_id", event.ID, "error", err)
		}
	}
	if h.feed != nil {
		h.feed.Publish(event)
	}
}
