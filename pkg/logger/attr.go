package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Machine records the machine name under the key "machine".
func Machine(name string) slog.Attr {
	return slog.String("machine", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// State records a state name under the key "state".
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// Edge records an edge as a group with "from" and "to" keys.
func Edge(from, to string) slog.Attr {
	return slog.Group("edge", slog.String("from", from), slog.String("to", to))
}

// TransitionID records the invocation identifier under the key "transition_id".
func TransitionID(id string) slog.Attr {
	return slog.String("transition_id", id)
}

// Reason records a halt reason under the key "reason".
// An empty reason yields an empty Attr.
func Reason(reason string) slog.Attr {
	if reason == "" {
		return slog.Attr{}
	}
	return slog.String("reason", reason)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
