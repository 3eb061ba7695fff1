// Package logging constructs the zerolog loggers used by the serving
// path. The CLI's command tracing stays on the simpler verbose-flag
// mechanism in internal/cli; structured logging is for the long-running
// server where output is scraped, not read interactively.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing JSON lines to w, tagged with the
// component name. Level accepts the usual zerolog names ("debug",
// "info", "warn", "error"); unknown values fall back to info.
func New(w io.Writer, component, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// NewConsole returns a human-readable logger for interactive use
// (`mlship serve` in a terminal rather than a container).
func NewConsole(component, level string) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, component, level)
}
