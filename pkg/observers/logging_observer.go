// Package observers provides observers for monitoring transit machines
package observers

import (
	"context"
	"log/slog"

	"github.com/anggasct/transit"
	"github.com/anggasct/transit/pkg/logger"
)

// LoggingObserver writes the transition lifecycle to a slog.Logger
type LoggingObserver struct {
	log        *slog.Logger
	transition slog.Level
	start      slog.Level
}

// LoggingOption configures a LoggingObserver
type LoggingOption func(*LoggingObserver)

// WithTransitionLevel sets the level of completed transition records
func WithTransitionLevel(l slog.Level) LoggingOption {
	return func(o *LoggingObserver) { o.transition = l }
}

// WithStartLevel sets the level of transition start records
func WithStartLevel(l slog.Level) LoggingOption {
	return func(o *LoggingObserver) { o.start = l }
}

// NewLoggingObserver creates a new logging observer. A nil logger falls back
// to slog.Default.
func NewLoggingObserver(log *slog.Logger, opts ...LoggingOption) *LoggingObserver {
	if log == nil {
		log = slog.Default()
	}
	o := &LoggingObserver{
		log:        log,
		transition: slog.LevelInfo,
		start:      slog.LevelDebug,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewDefaultLoggingObserver creates a logging observer writing text records
// at info level
func NewDefaultLoggingObserver() *LoggingObserver {
	return NewLoggingObserver(logger.New(logger.WithAttr(logger.Component("transit"))))
}

func attrs(info transit.TransitionInfo, extra ...slog.Attr) []slog.Attr {
	out := []slog.Attr{
		logger.Machine(info.Machine),
		logger.Event(info.Event),
		logger.Edge(info.From, info.To),
		logger.TransitionID(info.ID),
	}
	return append(out, extra...)
}

// OnTransitionStart logs the pipeline entry
func (o *LoggingObserver) OnTransitionStart(ctx context.Context, info transit.TransitionInfo) {
	o.log.LogAttrs(ctx, o.start, "transition started", attrs(info)...)
}

// OnTransition logs a completed transition
func (o *LoggingObserver) OnTransition(ctx context.Context, info transit.TransitionInfo) {
	o.log.LogAttrs(ctx, o.transition, "transition completed", attrs(info, logger.Duration(info.Duration))...)
}

// OnHalt logs a halted transition
func (o *LoggingObserver) OnHalt(ctx context.Context, info transit.TransitionInfo, halt *transit.TransitionHalted) {
	o.log.LogAttrs(ctx, slog.LevelInfo, "transition halted", attrs(info, logger.Reason(halt.Reason))...)
}

// OnDefuse logs a swallowed error
func (o *LoggingObserver) OnDefuse(ctx context.Context, info transit.TransitionInfo, err error) {
	o.log.LogAttrs(ctx, slog.LevelWarn, "transition error defused", attrs(info, logger.Error(err))...)
}

// OnError logs an error leaving the pipeline
func (o *LoggingObserver) OnError(ctx context.Context, info transit.TransitionInfo, err error, handled bool) {
	level := slog.LevelError
	if handled {
		level = slog.LevelWarn
	}
	o.log.LogAttrs(ctx, level, "transition failed", attrs(info, logger.Error(err), slog.Bool("handled", handled))...)
}
