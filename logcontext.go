package transit

import (
	"context"
	"log/slog"

	"github.com/anggasct/transit/pkg/logger"
)

// scope identifies the transition a context belongs to. Every callback,
// body, strategy and observer of one invocation receives it.
type scope struct {
	machine string
	event   string
	id      string
}

type scopeKey struct{}

func withScope(ctx context.Context, s scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func scopeFrom(ctx context.Context) (scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(scope)
	return s, ok
}

// TransitionIDFromContext returns the id of the transition running ctx
func TransitionIDFromContext(ctx context.Context) (string, bool) {
	s, ok := scopeFrom(ctx)
	return s.id, ok
}

// LogExtractors returns logger.ContextExtractors that tag records logged with
// a transition's context with its machine, event and id. Install them with
// logger.WithContextExtractors.
func LogExtractors() []logger.ContextExtractor {
	field := func(attr func(string) slog.Attr, pick func(scope) string) logger.ContextExtractor {
		return func(ctx context.Context) (slog.Attr, bool) {
			s, ok := scopeFrom(ctx)
			if !ok {
				return slog.Attr{}, false
			}
			return attr(pick(s)), true
		}
	}
	return []logger.ContextExtractor{
		field(logger.Machine, func(s scope) string { return s.machine }),
		field(logger.Event, func(s scope) string { return s.event }),
		field(logger.TransitionID, func(s scope) string { return s.id }),
	}
}
