package logging

import (
	"context"
	"errors"
	"log/slog"
)

// ContextProvider returns attributes evaluated at log time.
type ContextProvider func() []slog.Attr

// ClientContext reports where the live client currently is: the global
// tick and the origin of the loaded region.
func ClientContext(loopCycle, baseX, baseY func() int) ContextProvider {
	return func() []slog.Attr {
		return []slog.Attr{
			slog.Int("tick", loopCycle()),
			slog.Int("baseX", baseX()),
			slog.Int("baseY", baseY()),
		}
	}
}

// ClientHandler fans every record out to its sinks (console or file,
// Graylog, OTel) after stamping it with the client context. The context is
// read once per record so every sink sees the same tick.
type ClientHandler struct {
	sinks    []slog.Handler
	provider ContextProvider
}

// NewClientHandler returns a handler over the non-nil sinks. provider may
// be nil.
func NewClientHandler(provider ContextProvider, sinks ...slog.Handler) *ClientHandler {
	valid := make([]slog.Handler, 0, len(sinks))
	for _, h := range sinks {
		if h != nil {
			valid = append(valid, h)
		}
	}
	return &ClientHandler{sinks: valid, provider: provider}
}

// Enabled reports whether any sink takes records at level.
func (h *ClientHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range h.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle stamps r and hands a copy to each enabled sink. A failing sink
// does not stop the others; their errors are joined.
func (h *ClientHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	var errs []error
	for _, s := range h.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *ClientHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (h *ClientHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.each(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (h *ClientHandler) each(f func(slog.Handler) slog.Handler) *ClientHandler {
	sinks := make([]slog.Handler, len(h.sinks))
	for i, s := range h.sinks {
		sinks[i] = f(s)
	}
	return &ClientHandler{sinks: sinks, provider: h.provider}
}
