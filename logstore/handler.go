package logstore

import (
	"context"
	"log/slog"
)

// reservedKeys are attributes lifted into dedicated entry fields instead of
// the free-form attribute map.
const (
	keyCategory  = "category"
	keyEvent     = "event"
	keySessionID = "session_id"
	keyRequestID = "request_id"
)

// Handler is a slog.Handler that appends every record to a Store. Wrap it
// with another handler via Tee to keep console output alongside capture.
type Handler struct {
	store *Store
	level slog.Leveler

	// attrs are the pre-bound attributes from Logger.With.
	attrs []slog.Attr
}

var _ slog.Handler = &Handler{}

// NewHandler creates a capturing handler. Records below level are ignored.
func NewHandler(store *Store, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelDebug
	}
	return &Handler{store: store, level: level}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	entry := Entry{
		Time:    record.Time,
		Level:   record.Level.String(),
		Message: record.Message,
		Attrs:   map[string]any{},
	}

	collect := func(attr slog.Attr) bool {
		switch attr.Key {
		case keyCategory:
			entry.Category = attr.Value.String()
		case keyEvent:
			entry.Event = attr.Value.String()
		case keySessionID:
			entry.SessionID = attr.Value.String()
		case keyRequestID:
			entry.RequestID = attr.Value.String()
		default:
			entry.Attrs[attr.Key] = attr.Value.Any()
		}
		return true
	}

	for _, attr := range h.attrs {
		collect(attr)
	}
	record.Attrs(collect)

	if len(entry.Attrs) == 0 {
		entry.Attrs = nil
	}

	h.store.Append(entry)
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup flattens groups; log queries filter on flat keys.
func (h *Handler) WithGroup(name string) slog.Handler {
	return h
}

// Tee fans every record out to multiple handlers. Used to capture into the
// store while still writing to the console handler.
type Tee []slog.Handler

var _ slog.Handler = Tee{}

func (t Tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t Tee) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range t {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t Tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(Tee, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t Tee) WithGroup(name string) slog.Handler {
	out := make(Tee, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
