package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"servicewatchdog/internal/models"
)

// DefaultMaxEvents bounds the journal when no limit is configured.
const DefaultMaxEvents = 1000

// EventStorage keeps a bounded journal of watchdog events on disk. The
// journal is for operators only; restart accounting never reads it back.
type EventStorage struct {
	mu        sync.RWMutex
	path      string
	maxEvents int
	history   []models.Event
}

// NewEventStorage creates a storage instance and loads existing events if present.
func NewEventStorage(path string, maxEvents int) (*EventStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}

	s := &EventStorage{path: path, maxEvents: maxEvents}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Append adds a new event, trims the journal and persists it to disk.
func (s *EventStorage) Append(event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, event)
	s.trimLocked()
	return s.persist()
}

// Latest returns up to n of the newest events, oldest first. n <= 0
// returns everything.
func (s *EventStorage) Latest(n int) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if n > 0 && n < len(s.history) {
		start = len(s.history) - n
	}
	copied := make([]models.Event, len(s.history)-start)
	copy(copied, s.history[start:])
	return copied
}

func (s *EventStorage) trimLocked() {
	if len(s.history) > s.maxEvents {
		s.history = append([]models.Event(nil), s.history[len(s.history)-s.maxEvents:]...)
	}
}

func (s *EventStorage) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.history = []models.Event{}
			return nil
		}
		return fmt.Errorf("read event journal: %w", err)
	}

	if len(data) == 0 {
		s.history = []models.Event{}
		return nil
	}

	var entries []models.Event
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse event journal: %w", err)
	}

	s.history = entries
	s.trimLocked()
	return nil
}

func (s *EventStorage) persist() error {
	bytes, err := json.MarshalIndent(s.history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode event journal: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write temp event journal: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace event journal: %w", err)
	}
	return nil
}
