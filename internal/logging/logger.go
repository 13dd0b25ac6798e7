// Package logging builds the single *logrus.Logger threaded through
// every component constructor.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger with its level from LOG_LEVEL and its formatter
// chosen by ENVIRONMENT. The service name is not attached to the
// returned logger's entries: WithField builds a one-off entry and only
// its underlying logger is returned.
func New(service string) *logrus.Logger {
	logger := logrus.New()

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}

	return logger.WithField("service", service).Logger
}
