// Package logging builds the console logger used by the CLI.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger whose level follows the -v flag:
// 0 warns, 1 informs, 2 and above debugs.
func New(verbosity int) zerolog.Logger {
	return NewWithOutput(verbosity, os.Stderr)
}

// NewWithOutput is New with an explicit output, for tests.
func NewWithOutput(verbosity int, out io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case verbosity >= 2:
		level = zerolog.DebugLevel
	case verbosity == 1:
		level = zerolog.InfoLevel
	}

	writer := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("service", "scalefield").
		Logger()
}
