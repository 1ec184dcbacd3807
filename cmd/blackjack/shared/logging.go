package shared

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global zerolog logger. Console output is the
// default; structured switches to JSON lines for log collection.
func SetupLogger(debug, structured bool) zerolog.Logger {
	return setupLogger(os.Stderr, debug, structured)
}

func setupLogger(out io.Writer, debug, structured bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	var logger zerolog.Logger
	if structured {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		logger = zerolog.New(out)
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
	}
	logger = logger.Level(level).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
