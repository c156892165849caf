package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New creates the root logger. Pretty output is for humans running the CLI by
// hand; CI runs get JSON lines on stderr so stdout stays clean for outputs.
func New(level string, pretty bool) zerolog.Logger {
	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return logger.Level(lvl)
}
