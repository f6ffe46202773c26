// Package logger provides structured logging for the scanhub service
package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// NewLogger creates a new structured logger
func NewLogger(level logrus.Level) *Logger {
	logger := logrus.New()

	logger.SetLevel(level)

	// Use JSON formatter for structured logging in production
	if os.Getenv("ENV") == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	return &Logger{Logger: logger}
}

// WithScan adds scan job fields to the logger
func (l *Logger) WithScan(jobID, kind, target string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"job_id":    jobID,
		"scan_kind": kind,
		"target":    target,
	})
}

// WithError adds error context to the logger
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// LogScanExecution logs the start and end of a scan, including its duration
func (l *Logger) LogScanExecution(jobID string, fn func() error) error {
	start := time.Now()

	l.WithFields(Fields{
		"job_id": jobID,
		"action": "start",
	}).Info("Scan execution started")

	err := fn()
	duration := time.Since(start)

	fields := Fields{
		"job_id":   jobID,
		"action":   "complete",
		"duration": duration.String(),
	}

	if err != nil {
		fields["error"] = err.Error()
		l.WithFields(fields).Error("Scan execution failed")
	} else {
		l.WithFields(fields).Info("Scan execution completed successfully")
	}

	return err
}

// Default logger instance
var defaultLogger = NewLogger(logrus.InfoLevel)

// SetLevel sets the log level for the default logger
func SetLevel(level logrus.Level) {
	defaultLogger.SetLevel(level)
}

// Info logs an info message using the default logger
func Info(args ...interface{}) {
	defaultLogger.Info(args...)
}

// Infof logs a formatted info message using the default logger
func Infof(format string, args ...interface{}) {
	defaultLogger.Infof(format, args...)
}

// Error logs an error message using the default logger
func Error(args ...interface{}) {
	defaultLogger.Error(args...)
}

// Errorf logs a formatted error message using the default logger
func Errorf(format string, args ...interface{}) {
	defaultLogger.Errorf(format, args...)
}

// WithFields returns an entry with the specified fields using the default logger
func WithFields(fields Fields) *logrus.Entry {
	return defaultLogger.WithFields(fields)
}
