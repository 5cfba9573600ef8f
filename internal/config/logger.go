package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// NewLogger builds a logrus logger from logging configuration. Unknown levels
// fall back to info; any format other than "text" logs JSON.
func NewLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.SetOutput(output(cfg.Output))
	return logger
}

// stdio transports own stdout, so MCP servers log to stderr.
func output(name string) io.Writer {
	switch name {
	case "stderr":
		return os.Stderr
	case "discard":
		return io.Discard
	default:
		return os.Stdout
	}
}
