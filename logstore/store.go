// Package logstore keeps a bounded in-memory record of structured log events
// and serves the log query and export endpoints.
package logstore

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultCapacity bounds the store when the caller does not set one. The
// oldest entries are dropped first.
const DefaultCapacity = 10000

// Entry is one recorded log event.
type Entry struct {
	Time      time.Time      `json:"time"`
	Level     string         `json:"level"`
	Category  string         `json:"category,omitempty"`
	Event     string         `json:"event,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	Message   string         `json:"message"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// Query filters stored entries. Zero-valued fields match everything.
type Query struct {
	SessionID  string
	RequestID  string
	MinLevel   slog.Level
	Categories []string
	Events     []string
	Start      time.Time
	End        time.Time
	Limit      int
	Offset     int
}

// Store is a bounded, append-only in-memory log store. Appends and queries
// may run concurrently.
type Store struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

// NewStore creates a store holding at most capacity entries. A non-positive
// capacity falls back to DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity}
}

// Append records one entry, evicting the oldest when the store is full.
func (s *Store) Append(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.capacity {
		drop := len(s.entries) - s.capacity + 1
		s.entries = s.entries[drop:]
	}
	s.entries = append(s.entries, entry)
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Query returns the matching entries in append order, along with the total
// match count before limit and offset.
func (s *Store) Query(q Query) ([]Entry, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entry
	for _, entry := range s.entries {
		if q.matches(&entry) {
			matched = append(matched, entry)
		}
	}

	total := len(matched)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if q.Limit > 0 && offset+q.Limit < end {
		end = offset + q.Limit
	}

	out := make([]Entry, end-offset)
	copy(out, matched[offset:end])
	return out, total
}

// ExportJSONL writes the matching entries as JSON lines, one entry per line.
func (s *Store) ExportJSONL(w io.Writer, q Query) error {
	entries, _ := s.Query(q)
	enc := json.NewEncoder(w)
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return goerr.Wrap(err, "failed to encode log entry")
		}
	}
	return nil
}

func (q *Query) matches(entry *Entry) bool {
	if q.SessionID != "" && entry.SessionID != q.SessionID {
		return false
	}
	if q.RequestID != "" && entry.RequestID != q.RequestID {
		return false
	}
	if parseLevel(entry.Level) < q.MinLevel {
		return false
	}
	if len(q.Categories) > 0 && !contains(q.Categories, entry.Category) {
		return false
	}
	if len(q.Events) > 0 && !contains(q.Events, entry.Event) {
		return false
	}
	if !q.Start.IsZero() && entry.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && entry.Time.After(q.End) {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// ParseLevel maps a level name to its slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	return parseLevel(s)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
