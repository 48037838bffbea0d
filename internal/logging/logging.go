package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a config level name (DEBUG, INFO, WARN, ERROR) to a zerolog level.
// Unknown names fall back to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup configures the global zerolog logger. Verbose forces debug level and
// adds caller information.
func Setup(level string, verbose bool) zerolog.Logger {
	return SetupWriter(os.Stderr, level, verbose)
}

// SetupWriter is Setup with an explicit output.
func SetupWriter(out io.Writer, level string, verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}

	ctx := zerolog.New(output).With().Timestamp()
	lvl := ParseLevel(level)
	if verbose {
		lvl = zerolog.DebugLevel
		ctx = ctx.Caller()
	}

	logger := ctx.Logger().Level(lvl)
	log.Logger = logger
	return logger
}
