package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"servicewatchdog/internal/models"
	"servicewatchdog/internal/watchdog"
)

const feedWriteTimeout = 5 * time.Second

var feedUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// feedMessage is one websocket frame: the snapshot on connect, then one
// frame per event.
type feedMessage struct {
	Type     string             `json:"type"`
	Snapshot *watchdog.Snapshot `json:"snapshot,omitempty"`
	Event    *models.Event      `json:"event,omitempty"`
}

func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil {
		http.Error(w, "event feed unavailable", http.StatusServiceUnavailable)
		return
	}
	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.serveFeedConnection(conn)
}

func (s *Server) serveFeedConnection(conn *websocket.Conn) {
	defer conn.Close()

	ch, err := s.feed.Subscribe()
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(feedWriteTimeout))
		return
	}
	defer s.feed.Unsubscribe(ch)

	if s.status != nil {
		snap := s.status.Snapshot()
		if err := writeFeedMessage(conn, feedMessage{Type: "snapshot", Snapshot: &snap}); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := writeFeedMessage(conn, feedMessage{Type: "event", Event: &event}); err != nil {
				s.logger.Debug("event feed client dropped", "error", err)
				return
			}
		case <-done:
			return
		}
	}
}

func writeFeedMessage(conn *websocket.Conn, msg feedMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return conn.WriteJSON(msg)
}
