package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var base = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the process-wide logger. Development gets human-readable
// console output, everything else gets JSON lines.
func Init(level, environment string) {
	var out io.Writer = os.Stdout
	if environment == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if environment == "development" && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}

	base = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// L exposes the underlying logger for structured fields.
func L() *zerolog.Logger {
	return &base
}

// SetOutput redirects logging, mostly for tests.
func SetOutput(w io.Writer) {
	base = base.Output(w)
}

func Info(format string, v ...interface{}) {
	base.Info().Msg(fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	base.Error().Msg(fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	base.Debug().Msg(fmt.Sprintf(format, v...))
}

func Warn(format string, v ...interface{}) {
	base.Warn().Msg(fmt.Sprintf(format, v...))
}

// Op logs a failed operation with the ids involved.
func Op(op string, err error, fields map[string]string) {
	evt := base.Error().Err(err).Str("op", op)
	for k, v := range fields {
		evt = evt.Str(k, v)
	}
	evt.Msg("operation failed")
}
