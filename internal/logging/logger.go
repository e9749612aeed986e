// Package logging builds the logrus logger shared by the store, the recovery
// orchestrator, and the application lifecycle.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Level is the operator-facing verbosity setting from travelbrag.toml.
type Level string

const (
	// LevelQuiet suppresses everything except errors.
	LevelQuiet Level = "quiet"
	// LevelNormal shows standard operational messages.
	LevelNormal Level = "normal"
	// LevelVerbose adds per-operation detail.
	LevelVerbose Level = "verbose"
	// LevelDebug shows everything.
	LevelDebug Level = "debug"
)

// Config holds logger configuration.
type Config struct {
	Level  Level
	Format string // "text" or "json"
	Output io.Writer
}

// New creates a logger with the given configuration. An empty level means
// LevelNormal and an empty format means text.
func New(config Config) (*logrus.Logger, error) {
	logger := logrus.New()

	if config.Output != nil {
		logger.SetOutput(config.Output)
	} else {
		logger.SetOutput(os.Stderr)
	}

	switch config.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return nil, fmt.Errorf("unknown log format %q", config.Format)
	}

	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	return logger, nil
}

// ParseLevel maps a travelbrag level onto a logrus level.
func ParseLevel(level Level) (logrus.Level, error) {
	switch level {
	case LevelQuiet:
		return logrus.ErrorLevel, nil
	case LevelNormal, "":
		return logrus.InfoLevel, nil
	case LevelVerbose:
		return logrus.DebugLevel, nil
	case LevelDebug:
		return logrus.TraceLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// Discard returns a logger that drops every entry. Packages use it when the
// caller supplies no logger.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
