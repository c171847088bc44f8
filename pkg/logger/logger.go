package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelSilent:
		return "silent"
	default:
		return "unknown"
	}
}

// ParseLevel maps a config value such as "warn" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off", "none":
		return LevelSilent, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger provides structured logging with configurable levels
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	WithFields(fields ...Field) Logger
	SetLevel(level Level)
}

// Field is one key=value pair attached to a log line
type Field struct {
	Key   string
	Value any
}

// F builds a Field
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

type state struct {
	mu    sync.Mutex
	level Level
	out   io.Writer
}

type logfmtLogger struct {
	st     *state
	fields []Field
	now    func() time.Time
}

// NewLogger creates a logger writing logfmt lines at or above level to out
func NewLogger(level Level, out io.Writer) Logger {
	if out == nil {
		out = os.Stderr
	}
	return &logfmtLogger{
		st:  &state{level: level, out: out},
		now: time.Now,
	}
}

// NewDefaultLogger creates an info-level logger on stderr
func NewDefaultLogger() Logger {
	return NewLogger(LevelInfo, os.Stderr)
}

// NewSilentLogger creates a logger that outputs nothing
func NewSilentLogger() Logger {
	return NewLogger(LevelSilent, io.Discard)
}

// SetLevel changes the minimum level for this logger and every logger derived from it
func (l *logfmtLogger) SetLevel(level Level) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	l.st.level = level
}

// WithFields returns a child logger that prefixes every line with fields
func (l *logfmtLogger) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &logfmtLogger{st: l.st, fields: merged, now: l.now}
}

func (l *logfmtLogger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *logfmtLogger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *logfmtLogger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *logfmtLogger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *logfmtLogger) log(level Level, msg string, fields []Field) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()

	if level < l.st.level || l.st.level == LevelSilent {
		return
	}

	var b strings.Builder
	b.WriteString("time=")
	b.WriteString(l.now().Format(time.RFC3339))
	b.WriteString(" level=")
	b.WriteString(level.String())
	b.WriteString(" msg=")
	b.WriteString(quote(msg))
	for _, f := range l.fields {
		writeField(&b, f)
	}
	for _, f := range fields {
		writeField(&b, f)
	}
	b.WriteByte('\n')

	_, _ = io.WriteString(l.st.out, b.String())
}

func writeField(b *strings.Builder, f Field) {
	b.WriteByte(' ')
	b.WriteString(f.Key)
	b.WriteByte('=')
	b.WriteString(quote(fmt.Sprint(f.Value)))
}

// quote wraps values containing spaces, quotes or '=' in double quotes
func quote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewDefaultLogger()
)

// SetDefault replaces the package-level logger
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Default returns the package-level logger
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func Debug(msg string, fields ...Field) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { Default().Warn(msg, fields...) }
func Error(msg string, fields ...Field) { Default().Error(msg, fields...) }
