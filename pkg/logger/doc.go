// Package logger builds *slog.Logger values for transit machines and the
// programs embedding them. New takes functional options; FromConfig builds a
// logger from a Config that can be loaded from the environment with
// pkg/config.
//
// Attribute helpers such as Machine, Event, Edge and TransitionID keep key
// names consistent between the engine's debug output and the logging
// observer.
//
//	log := logger.New(
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithFormat(logger.FormatText),
//	    logger.WithAttr(slog.String("service", "orders")),
//	)
//	m, err := transit.NewMachine[*Order]("order").
//	    WithLogger(log).
//	    ...
package logger
