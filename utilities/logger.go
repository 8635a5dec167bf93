package utilities

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var logger = newLogger("info", "text")

func newLogger(level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.000000"})
	}
	return l
}

// InitLogger replaces the global logger. Unknown levels and formats fall back to info/text.
func InitLogger(level, format string) {
	logger = newLogger(level, format)
}

// Logger exposes the global logger for structured fields.
func Logger() *logrus.Logger {
	return logger
}

// LogRequest logs one HTTP request
func LogRequest(method, path, remoteAddr string, status int, duration time.Duration) {
	entry := logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"remote":   remoteAddr,
		"status":   status,
		"duration": duration.String(),
	})
	switch {
	case status >= 500:
		entry.Error("request")
	case status >= 400:
		entry.Warn("request")
	default:
		entry.Info("request")
	}
}

// LogError logs err with the context it happened in
func LogError(err error, context string) {
	logger.WithError(err).Error(context)
}

// LogWarn logs unexpected conditions that don't fail the request
func LogWarn(format string, v ...interface{}) {
	logger.Warnf(format, v...)
}

// LogDebug logs debug information
func LogDebug(format string, v ...interface{}) {
	logger.Debugf(format, v...)
}

// LogInfo logs general information
func LogInfo(format string, v ...interface{}) {
	logger.Infof(format, v...)
}
