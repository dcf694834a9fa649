package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor extracts a slog attribute from context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// contextHandler adds the attributes found by its extractors to every record.
// A record that already carries an attribute under the same key keeps its own.
type contextHandler struct {
	slog.Handler
	extractors []ContextExtractor
}

// NewContextHandler wraps next so records logged with a context also carry
// the attributes extracted from it. Nil extractors are dropped; with none
// left, next is returned as is.
func NewContextHandler(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	var kept []ContextExtractor
	for _, ex := range extractors {
		if ex != nil {
			kept = append(kept, ex)
		}
	}
	if len(kept) == 0 {
		return next
	}
	return &contextHandler{Handler: next, extractors: kept}
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	var present map[string]bool
	for _, ex := range h.extractors {
		attr, ok := ex(ctx)
		if !ok || attr.Equal(slog.Attr{}) {
			continue
		}
		if present == nil {
			present = make(map[string]bool, rec.NumAttrs())
			rec.Attrs(func(a slog.Attr) bool {
				present[a.Key] = true
				return true
			})
		}
		if !present[attr.Key] {
			rec.AddAttrs(attr)
			present[attr.Key] = true
		}
	}
	return h.Handler.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), extractors: h.extractors}
}
