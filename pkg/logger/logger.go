// Package logger builds the zerolog root logger every component derives its
// scoped sub-logger from.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects the minimum level and the output format.
type Config struct {
	Level  string // zerolog level name: trace, debug, info, warn, error
	Pretty bool   // human-readable console output for local runs
}

// New builds the root logger. Unknown or empty level names fall back to
// info rather than failing startup.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetGlobalLogger routes zerolog's package-level log calls through l, so
// code logging via rs/zerolog/log shares the configured output and level.
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
