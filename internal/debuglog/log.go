package debuglog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF", "NONE":
		return LevelOff
	default:
		return LevelInfo
	}
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	levelVar     = new(slog.LevelVar)
	logger       *slog.Logger
	logFile      *os.File
)

// Setup opens filePath for appending and starts logging at level. The parent
// directory is created if needed. LevelOff closes any open file and disables
// logging entirely, which keeps the terminal UI free of stray output.
func Setup(level LogLevel, filePath string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	currentLevel = level
	levelVar.Set(level.slogLevel())

	if level == LevelOff {
		return nil
	}
	if filePath == "" {
		return fmt.Errorf("log file path is required")
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}

	logFile = f
	logger = newLogger(f)
	return nil
}

// SetOutput logs to w instead of a file. Used by tests and the CLI's
// stderr mode.
func SetOutput(level LogLevel, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	currentLevel = level
	levelVar.Set(level.slogLevel())
	if level == LevelOff || w == nil {
		return
	}
	logger = newLogger(w)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar})).
		With("app", "headlines")
}

// SetLevel changes the current logging level
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
	levelVar.Set(level.slogLevel())
}

// GetLevel returns the current logging level
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Close closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	logger = nil
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func active() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if currentLevel == LevelOff {
		return nil
	}
	return logger
}

func logf(l *slog.Logger, level LogLevel, format string, args ...any) {
	if l == nil || level < GetLevel() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	switch level {
	case LevelDebug:
		l.Debug(msg)
	case LevelInfo:
		l.Info(msg)
	case LevelWarn:
		l.Warn(msg)
	default:
		l.Error(msg)
	}
}

func Debugf(format string, args ...any) {
	logf(active(), LevelDebug, format, args...)
}

func Infof(format string, args ...any) {
	logf(active(), LevelInfo, format, args...)
}

func Warnf(format string, args ...any) {
	logf(active(), LevelWarn, format, args...)
}

func Errorf(format string, args ...any) {
	logf(active(), LevelError, format, args...)
}

// FieldLogger attaches key-value pairs to every message.
type FieldLogger struct {
	attrs []any
}

// WithFields returns a new logger with the specified fields
func WithFields(fields map[string]interface{}) *FieldLogger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	return &FieldLogger{attrs: attrs}
}

func (fl *FieldLogger) logger() *slog.Logger {
	l := active()
	if l == nil {
		return nil
	}
	return l.With(fl.attrs...)
}

func (fl *FieldLogger) Debugf(format string, args ...any) {
	logf(fl.logger(), LevelDebug, format, args...)
}

func (fl *FieldLogger) Infof(format string, args ...any) {
	logf(fl.logger(), LevelInfo, format, args...)
}

func (fl *FieldLogger) Warnf(format string, args ...any) {
	logf(fl.logger(), LevelWarn, format, args...)
}

func (fl *FieldLogger) Errorf(format string, args ...any) {
	logf(fl.logger(), LevelError, format, args...)
}
