package logging

import (
	"context"
	"log/slog"
)

// CapturingHandler records every log record of one activity in a
// LogCollector and passes it on to the underlying handler.
type CapturingHandler struct {
	underlying slog.Handler
	collector  *LogCollector
	activityID string
	attrs      []slog.Attr
	// prefix is the dotted group path applied to keys of later attributes.
	prefix string
}

// NewCapturingHandler creates a CapturingHandler for activityID.
func NewCapturingHandler(underlying slog.Handler, collector *LogCollector, activityID string) *CapturingHandler {
	return &CapturingHandler{
		underlying: underlying,
		collector:  collector,
		activityID: activityID,
	}
}

// Enabled reports true for every level so debug output from modules is
// captured even when the base logger filters it. Handle still defers to the
// underlying handler's level for output.
func (h *CapturingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *CapturingHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:       r.Time,
		Level:      r.Level.String(),
		Message:    r.Message,
		Attributes: make(map[string]any, r.NumAttrs()+len(h.attrs)),
	}
	for _, a := range h.attrs {
		entry.Attributes[a.Key] = resolveValue(a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attributes[h.prefix+a.Key] = resolveValue(a.Value)
		return true
	})
	h.collector.AddLog(h.activityID, entry)

	if !h.underlying.Enabled(ctx, r.Level) {
		return nil
	}
	return h.underlying.Handle(ctx, r)
}

// WithAttrs must return a CapturingHandler so capture survives With chains.
func (h *CapturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}

	next := *h
	next.underlying = h.underlying.WithAttrs(attrs)
	next.attrs = merged
	return &next
}

func (h *CapturingHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.underlying = h.underlying.WithGroup(name)
	next.prefix = h.prefix + name + "."
	return &next
}

// resolveValue converts a slog.Value to a JSON-serializable value.
func resolveValue(v slog.Value) any {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	case slog.KindGroup:
		attrs := v.Group()
		group := make(map[string]any, len(attrs))
		for _, a := range attrs {
			group[a.Key] = resolveValue(a.Value)
		}
		return group
	default:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	}
}
