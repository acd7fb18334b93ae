package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger, usable before Init with logrus defaults
var Log = logrus.New()

// Options selects level, format and destination
// Empty fields fall back to LOG_LEVEL / LOG_FORMAT and stderr
type Options struct {
	Level  string
	Format string // "text" or "json"
	File   string
}

// Init configures Log once at startup
// Returns the opened log file (if any) so main can close it on exit
func Init(opts Options) (io.Closer, error) {
	level := opts.Level
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	Log.SetLevel(parsed)

	format := opts.Format
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if opts.File == "" {
		Log.SetOutput(os.Stderr)
		return nil, nil
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	Log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}

// For returns an entry scoped to a component
func For(component string) *logrus.Entry {
	return Log.WithField("component", component)
}

// Discard returns an entry that drops everything, for tests and silent callers
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
