// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the root logger. Level falls back to info when the string
// is empty or unparsable; quiet raises the threshold to errors only, so
// progress output stays readable. SDK request logging is never enabled
// here — provider verbosity is kept out of the log stream.
func Setup(level string, quiet bool, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if quiet {
		lvl = zerolog.ErrorLevel
	}

	writer := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}
