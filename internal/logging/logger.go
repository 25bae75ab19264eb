// Package logging provides the process-wide structured logger.
//
// The TUI owns the terminal, so after Init all output goes to a dated file.
// Before Init (CLI subcommands, tests) warnings and errors go to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the global logger instance
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           log.WarnLevel,
	})

	mu sync.Mutex

	// logFile is the file handle for the log file
	logFile *os.File
)

// Init redirects logging to dir/feedline-YYYY-MM-DD.log at the given level
// ("debug", "info", "warn", "error"). Returns the log file path.
func Init(dir, level string) (string, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return "", fmt.Errorf("parse log level: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	// Create log file with date
	logPath := filepath.Join(dir, fmt.Sprintf("feedline-%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	Logger = newLogger(f, lvl)
	return logPath, nil
}

// SetOutput replaces the logger destination. Used by tests and CLI commands.
func SetOutput(w io.Writer, level log.Level) {
	mu.Lock()
	defer mu.Unlock()
	Logger = newLogger(w, level)
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})
}

// Close closes the log file
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		Logger.Info("feedline shutting down")
		logFile.Close()
		logFile = nil
		Logger = newLogger(os.Stderr, log.WarnLevel)
	}
}

func current() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return Logger
}

// Info logs an info message
func Info(msg string, keyvals ...interface{}) {
	current().Info(msg, keyvals...)
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) {
	current().Debug(msg, keyvals...)
}

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) {
	current().Warn(msg, keyvals...)
}

// Error logs an error message
func Error(msg string, keyvals ...interface{}) {
	current().Error(msg, keyvals...)
}

// WithPrefix returns a logger with a prefix
func WithPrefix(prefix string) *log.Logger {
	return current().WithPrefix(prefix)
}
