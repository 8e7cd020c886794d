package logger

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. It logs to stderr at info level until
// Configure is called.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
}

// Configure applies the level and format ("text" or "json") from config.
func Configure(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	Logger.SetLevel(lvl)

	switch format {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}

// Session returns an entry scoped to a recording session.
func Session(sessionID string) *logrus.Entry {
	return Logger.WithField("session", sessionID)
}
