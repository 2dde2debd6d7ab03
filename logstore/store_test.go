package logstore_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/plandraft/plandraft/logstore"
)

func entryAt(minute int, level, category, session string) logstore.Entry {
	return logstore.Entry{
		Time:      time.Date(2026, 8, 25, 10, minute, 0, 0, time.UTC),
		Level:     level,
		Category:  category,
		SessionID: session,
		Message:   fmt.Sprintf("event at minute %d", minute),
	}
}

func TestStoreQuery(t *testing.T) {
	store := logstore.NewStore(100)
	store.Append(entryAt(0, "INFO", "loop", "s1"))
	store.Append(entryAt(1, "DEBUG", "tool", "s1"))
	store.Append(entryAt(2, "ERROR", "tool", "s2"))
	store.Append(entryAt(3, "INFO", "llm", "s2"))

	t.Run("empty query matches everything", func(t *testing.T) {
		entries, total := store.Query(logstore.Query{})
		gt.Equal(t, 4, total)
		gt.Equal(t, 4, len(entries))
	})

	t.Run("filter by session", func(t *testing.T) {
		entries, total := store.Query(logstore.Query{SessionID: "s1"})
		gt.Equal(t, 2, total)
		gt.Equal(t, "loop", entries[0].Category)
		gt.Equal(t, "tool", entries[1].Category)
	})

	t.Run("filter by minimum level", func(t *testing.T) {
		entries, total := store.Query(logstore.Query{MinLevel: slog.LevelError})
		gt.Equal(t, 1, total)
		gt.Equal(t, "s2", entries[0].SessionID)
	})

	t.Run("filter by category", func(t *testing.T) {
		_, total := store.Query(logstore.Query{Categories: []string{"tool", "llm"}})
		gt.Equal(t, 3, total)
	})

	t.Run("filter by time window", func(t *testing.T) {
		entries, total := store.Query(logstore.Query{
			Start: time.Date(2026, 8, 25, 10, 1, 0, 0, time.UTC),
			End:   time.Date(2026, 8, 25, 10, 2, 0, 0, time.UTC),
		})
		gt.Equal(t, 2, total)
		gt.Equal(t, "DEBUG", entries[0].Level)
	})

	t.Run("limit and offset page through, total stays full", func(t *testing.T) {
		entries, total := store.Query(logstore.Query{Limit: 2, Offset: 1})
		gt.Equal(t, 4, total)
		gt.Equal(t, 2, len(entries))
		gt.Equal(t, "tool", entries[0].Category)
		gt.Equal(t, "tool", entries[1].Category)
	})

	t.Run("offset past the end yields nothing", func(t *testing.T) {
		entries, total := store.Query(logstore.Query{Offset: 10})
		gt.Equal(t, 4, total)
		gt.Equal(t, 0, len(entries))
	})
}

func TestStoreCapacity(t *testing.T) {
	t.Run("oldest entries are evicted first", func(t *testing.T) {
		store := logstore.NewStore(3)
		for i := 0; i < 5; i++ {
			store.Append(entryAt(i, "INFO", "loop", "s1"))
		}

		gt.Equal(t, 3, store.Len())
		entries, _ := store.Query(logstore.Query{})
		gt.Equal(t, "event at minute 2", entries[0].Message)
		gt.Equal(t, "event at minute 4", entries[2].Message)
	})

	t.Run("non-positive capacity falls back to the default", func(t *testing.T) {
		store := logstore.NewStore(0)
		store.Append(entryAt(0, "INFO", "", ""))
		gt.Equal(t, 1, store.Len())
	})
}

func TestExportJSONL(t *testing.T) {
	store := logstore.NewStore(10)
	store.Append(entryAt(0, "INFO", "loop", "s1"))
	store.Append(entryAt(1, "ERROR", "tool", "s1"))

	var buf bytes.Buffer
	gt.NoError(t, store.ExportJSONL(&buf, logstore.Query{}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	gt.Equal(t, 2, len(lines))
	gt.True(t, strings.Contains(lines[0], `"level":"INFO"`))
	gt.True(t, strings.Contains(lines[0], `"sessionId":"s1"`))
	gt.True(t, strings.Contains(lines[1], `"category":"tool"`))
}

func TestHandler(t *testing.T) {
	t.Run("reserved attrs become entry fields", func(t *testing.T) {
		store := logstore.NewStore(10)
		logger := slog.New(logstore.NewHandler(store, slog.LevelDebug))

		logger.Info("tool executed",
			"category", "tool",
			"event", "tool_executed",
			"session_id", "s1",
			"request_id", "r1",
			"tool", "create_room",
		)

		entries, total := store.Query(logstore.Query{})
		gt.Equal(t, 1, total)
		entry := entries[0]
		gt.Equal(t, "tool", entry.Category)
		gt.Equal(t, "tool_executed", entry.Event)
		gt.Equal(t, "s1", entry.SessionID)
		gt.Equal(t, "r1", entry.RequestID)
		gt.Equal(t, "tool executed", entry.Message)
		gt.Equal(t, "create_room", entry.Attrs["tool"])
	})

	t.Run("pre-bound attrs from With are captured", func(t *testing.T) {
		store := logstore.NewStore(10)
		logger := slog.New(logstore.NewHandler(store, slog.LevelDebug)).
			With("session_id", "s9")

		logger.Info("iteration started")

		entries, _ := store.Query(logstore.Query{SessionID: "s9"})
		gt.Equal(t, 1, len(entries))
	})

	t.Run("records below the handler level are dropped", func(t *testing.T) {
		store := logstore.NewStore(10)
		logger := slog.New(logstore.NewHandler(store, slog.LevelInfo))

		logger.Debug("noise")
		logger.Info("signal")

		gt.Equal(t, 1, store.Len())
	})
}

func TestTee(t *testing.T) {
	first := logstore.NewStore(10)
	second := logstore.NewStore(10)
	logger := slog.New(logstore.Tee{
		logstore.NewHandler(first, slog.LevelDebug),
		logstore.NewHandler(second, slog.LevelError),
	})

	logger.Info("only the first handler takes this")
	logger.Error("both handlers take this")

	gt.Equal(t, 2, first.Len())
	gt.Equal(t, 1, second.Len())
}

func TestParseLevel(t *testing.T) {
	gt.Equal(t, slog.LevelDebug, logstore.ParseLevel("debug"))
	gt.Equal(t, slog.LevelWarn, logstore.ParseLevel("warning"))
	gt.Equal(t, slog.LevelError, logstore.ParseLevel("ERROR"))
	gt.Equal(t, slog.LevelInfo, logstore.ParseLevel("anything else"))
}
