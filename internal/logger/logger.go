package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a component-tagged console logger. Services hold one per
// component so log lines are attributable without extra fields.
type Logger struct {
	*zerolog.Logger
	component string
}

// New creates a new logger instance for a specific component. Verbosity is
// driven by the LOG_LEVEL environment variable (debug, info, warn, error);
// unknown or empty values default to info.
func New(component string) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05",
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("[%s] %s", component, i)
		},
	}

	l := zerolog.New(output).
		Level(levelFromEnv()).
		With().
		Timestamp().
		Logger()

	return &Logger{
		Logger:    &l,
		component: component,
	}
}

func levelFromEnv() zerolog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
