// Package logging configures the process-wide zerolog logger, replacing
// the teacher's log/slog-based internal/infrastructure/logger for
// consistency with the rest of this repo's stack.
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger at the given level ("debug",
// "info", "warn", "error"), writing pretty console output when pretty is
// true and structured JSON otherwise.
func Init(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out zerolog.ConsoleWriter
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// For returns a child logger tagged with a "component" field. Nothing in
// this repository calls it; the scheduler, bus and sandbox packages use
// the global logger (the scheduler's can be replaced via WithLogger).
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
