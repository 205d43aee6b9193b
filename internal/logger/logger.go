package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the application logger. Development gets human readable console
// output at debug level; every other environment logs JSON at info level.
func New(environment string) zerolog.Logger {
	return NewWithWriter(environment, os.Stderr)
}

func NewWithWriter(environment string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	out := w
	if environment == "" || environment == "development" {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "trafficflow").
		Logger()
}
