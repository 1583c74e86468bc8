// Package logging provides a leveled, component-scoped logger backed by logrus.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log severity.
type Level int

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

func (l Level) logrus() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLevel parses a log level string. Unknown values map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ValidLevel reports whether s names a known level.
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// Fields are structured key/value pairs attached to log lines.
type Fields map[string]interface{}

// Logger is a leveled logger. Loggers derived with WithComponent or
// WithFields share the parent's output and level.
type Logger struct {
	base  *logrus.Logger
	entry *logrus.Entry
}

// New creates a logger writing text lines to stderr.
func New(level Level) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetLevel(level.logrus())
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return &Logger{base: base, entry: logrus.NewEntry(base)}
}

// Options controls where and how log lines are written.
type Options struct {
	Level  string
	Format string // text or json
	File   string // empty writes to stderr

	// Rotation settings, used when File is set.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Configure applies opts to the logger.
func (l *Logger) Configure(opts Options) error {
	if opts.Level != "" {
		if !ValidLevel(opts.Level) {
			return fmt.Errorf("invalid log level %q", opts.Level)
		}
		l.SetLevel(ParseLevel(opts.Level))
	}

	switch opts.Format {
	case "", "text":
		l.base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
			DisableColors:   opts.File != "",
		})
	case "json":
		l.base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		return fmt.Errorf("invalid log format %q", opts.Format)
	}

	if opts.File != "" {
		l.SetOutput(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		})
	}
	return nil
}

// SetOutput sets the log output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.base.SetOutput(w)
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.base.SetLevel(level.logrus())
}

// WithComponent returns a logger tagging every line with a component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithField("component", component)}
}

// WithFields returns a logger carrying extra structured fields.
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithError returns a logger carrying err in the "error" field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithError(err)}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	l := New(LevelError)
	l.SetOutput(io.Discard)
	l.base.SetLevel(logrus.PanicLevel)
	return l
}
