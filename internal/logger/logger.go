package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger is the leveled printf-style logger used across the service.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
	Fatal(format string, v ...any)
	SetLevel(level Level)
}

// LogConfig selects where logs go and how verbose they are.
//
// Output:   "stderr" (default) or "file".
// Level:    "debug", "info", "warn", "error" or "fatal".
// FilePath: target file when Output is "file".
type LogConfig struct {
	Output   string
	Level    string
	FilePath string
}

type standardLogger struct {
	logger *log.Logger
	level  atomic.Int32
}

// New builds a logger from cfg, falling back to LOG_OUTPUT, LOG_LEVEL and LOG_FILE_PATH.
func New(cfg LogConfig) (Logger, error) {
	output := firstNonEmpty(cfg.Output, os.Getenv("LOG_OUTPUT"), "stderr")

	var w io.Writer
	switch output {
	case "stderr":
		w = os.Stderr
	case "file":
		path := firstNonEmpty(cfg.FilePath, os.Getenv("LOG_FILE_PATH"), "papernotes.log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
	default:
		return nil, fmt.Errorf("invalid log output %q (expected 'file' or 'stderr')", output)
	}

	l := newWithWriter(w, ParseLevel(firstNonEmpty(cfg.Level, os.Getenv("LOG_LEVEL"), "info")))
	return l, nil
}

// NewNoOpLogger discards everything. Used by tests.
func NewNoOpLogger() Logger {
	return newWithWriter(io.Discard, FatalLevel)
}

func newWithWriter(w io.Writer, level Level) *standardLogger {
	l := &standardLogger{logger: log.New(w, "", log.LstdFlags)}
	l.level.Store(int32(level))
	return l
}

// ParseLevel maps a level name to a Level; unknown names mean info.
func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

func (l *standardLogger) SetLevel(level Level) { l.level.Store(int32(level)) }

func (l *standardLogger) Debug(format string, v ...any) { l.logf(DebugLevel, format, v...) }
func (l *standardLogger) Info(format string, v ...any)  { l.logf(InfoLevel, format, v...) }
func (l *standardLogger) Warn(format string, v ...any)  { l.logf(WarnLevel, format, v...) }
func (l *standardLogger) Error(format string, v ...any) { l.logf(ErrorLevel, format, v...) }

func (l *standardLogger) Fatal(format string, v ...any) {
	l.logger.Printf("[%s] %s", FatalLevel, fmt.Sprintf(format, v...))
	os.Exit(1)
}

func (l *standardLogger) logf(level Level, format string, v ...any) {
	if Level(l.level.Load()) > level {
		return
	}
	l.logger.Printf("[%s] %s", level, fmt.Sprintf(format, v...))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
