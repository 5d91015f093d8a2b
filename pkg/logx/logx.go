// Package logx provides structured logging with component-scoped loggers and
// environment-driven debug configuration.
package logx

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logger writes leveled, component-tagged log lines.
type Logger struct {
	componentID string
	logger      *log.Logger
}

// Level identifies the severity of a log line.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// DebugConfig controls debug logging behavior.
type DebugConfig struct {
	Enabled     bool
	FileLogging bool
	LogDir      string
}

//nolint:gochecknoglobals // Package-level debug configuration, set once at startup
var (
	debugConfig = &DebugConfig{}
	debugMutex  sync.RWMutex
)

func init() { //nolint:gochecknoinits // Required for env var initialization
	initDebugFromEnv()
}

// initDebugFromEnv initializes debug configuration from environment variables.
// DEBUG=1 enables debug output; DIRECTOR_LOG_DIR overrides the log directory.
func initDebugFromEnv() {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if v := os.Getenv("DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		debugConfig.Enabled = true
	}
	if dir := os.Getenv("DIRECTOR_LOG_DIR"); dir != "" {
		debugConfig.LogDir = dir
		debugConfig.FileLogging = true
	}
}

// NewLogger creates a logger scoped to the given component ID.
func NewLogger(componentID string) *Logger {
	return &Logger{
		componentID: componentID,
		logger:      log.New(os.Stderr, "", 0),
	}
}

// SetDebugConfig overrides the debug configuration at runtime.
func SetDebugConfig(enabled, fileLogging bool, logDir string) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugConfig.Enabled = enabled
	debugConfig.FileLogging = fileLogging
	if logDir != "" {
		debugConfig.LogDir = logDir
	}
}

// IsDebugEnabled reports whether debug logging is enabled.
func IsDebugEnabled() bool {
	debugMutex.RLock()
	defer debugMutex.RUnlock()
	return debugConfig.Enabled
}

func (l *Logger) log(level Level, format string, args ...any) {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%s [%s] %s: %s", timestamp, level, l.componentID, message)

	if level != LevelDebug && fileLoggingEnabled() {
		l.appendToFile(level, timestamp, message)
	}
}

func fileLoggingEnabled() bool {
	debugMutex.RLock()
	defer debugMutex.RUnlock()
	return debugConfig.FileLogging && debugConfig.LogDir != ""
}

// appendToFile writes the log line to the component's log file, creating the
// log directory as needed. Failures are silent; logging must never crash the
// caller.
func (l *Logger) appendToFile(level Level, timestamp, message string) {
	debugMutex.RLock()
	dir := debugConfig.LogDir
	debugMutex.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}

	path := filepath.Join(dir, l.componentID+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	fmt.Fprintf(f, "%s [%s] %s\n", timestamp, level, message)
}

// Debug logs a debug message if debug logging is enabled.
func (l *Logger) Debug(format string, args ...any) {
	if IsDebugEnabled() {
		l.log(LevelDebug, format, args...)
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// GetComponentID returns the component ID this logger is scoped to.
func (l *Logger) GetComponentID() string {
	return l.componentID
}

// WithComponentID returns a new logger scoped to a different component ID.
func (l *Logger) WithComponentID(componentID string) *Logger {
	return NewLogger(componentID)
}
