// Package logger holds the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It is usable before Init is called (logrus defaults).
var Log = logrus.New()

// Options controls how Init configures the logger
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// Init configures the shared logger. Empty options fall back to LOG_LEVEL and LOG_FORMAT.
func Init(opts Options) {
	level := opts.Level
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Log.SetLevel(parsed)

	format := opts.Format
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	if strings.ToLower(format) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if opts.Output != nil {
		Log.SetOutput(opts.Output)
	} else {
		Log.SetOutput(os.Stdout)
	}
}

// ForPlayer returns an entry tagged with the player id
func ForPlayer(playerID string) *logrus.Entry {
	return Log.WithField("player_id", playerID)
}

// ForComponent returns an entry tagged with the owning component
func ForComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
