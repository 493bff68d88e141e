// Package logger provides leveled file logging for the application and for
// each test case run.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level is a log severity.
type Level int

// Log levels, lowest first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config string to a Level. Unknown values map to debug.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelDebug
	}
}

// Logger writes leveled lines to a file and, optionally, a console mirror.
// A nil *Logger discards everything.
type Logger struct {
	sink   *sink
	level  Level
	prefix string
}

// sink is the destination shared by a logger and its prefixed children.
type sink struct {
	mu     sync.Mutex
	out    *log.Logger
	file   *os.File
	mirror io.Writer
}

// New opens (or creates) the log file at path, creating parent directories.
func New(path string, level Level) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	return &Logger{
		sink: &sink{
			out:  log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds),
			file: f,
		},
		level: level,
	}, nil
}

// NewWriter creates a logger over an arbitrary writer (tests, stderr).
func NewWriter(w io.Writer, level Level) *Logger {
	return &Logger{
		sink:  &sink{out: log.New(w, "", log.Ltime|log.Lmicroseconds)},
		level: level,
	}
}

// Discard returns a logger that drops all output.
func Discard() *Logger {
	return NewWriter(io.Discard, LevelError+1)
}

// WithMirror copies every line that passes the level filter to w. The mirror
// is shared with loggers derived by WithPrefix.
func (l *Logger) WithMirror(w io.Writer) *Logger {
	if l == nil {
		return nil
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.mirror = w
	return l
}

// WithPrefix returns a logger sharing the same sink that prefixes each
// message. Closing either logger closes the sink for both.
func (l *Logger) WithPrefix(prefix string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{sink: l.sink, level: l.level, prefix: l.prefix + prefix}
}

// Close closes the underlying file, if any.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.out = log.New(io.Discard, "", 0)
	s.mirror = nil
	return err
}

// Path returns the log file path, or "" for writer-backed loggers.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.file == nil {
		return ""
	}
	return l.sink.file.Name()
}

// Writer returns the underlying writer for use by collaborators.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.file != nil {
		return l.sink.file
	}
	return l.sink.out.Writer()
}

func (l *Logger) logf(level Level, format string, v ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	msg := l.prefix + fmt.Sprintf(format, v...)

	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.Printf("[%s] %s", level, msg)
	if s.mirror != nil {
		fmt.Fprintf(s.mirror, "%s: %s\n", level, msg)
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, v ...interface{}) { l.logf(LevelDebug, format, v...) }

// Info logs an info message.
func (l *Logger) Info(format string, v ...interface{}) { l.logf(LevelInfo, format, v...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, v ...interface{}) { l.logf(LevelWarn, format, v...) }

// Error logs an error message.
func (l *Logger) Error(format string, v ...interface{}) { l.logf(LevelError, format, v...) }
