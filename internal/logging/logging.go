package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New constructs the process-wide logger. All phases receive this logger
// by value; nothing logs through package-level globals.
func New(verbose, quiet bool) zerolog.Logger {
	return NewWriter(os.Stderr, verbose, quiet)
}

// NewWriter is New with an explicit output, for tests.
func NewWriter(w io.Writer, verbose, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.ErrorLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}
