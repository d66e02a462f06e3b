// Package logging is the service's structured logging facade. Packages log
// through the Logger interface with typed Fields; the implementation is zap.
//
// A process-wide logger is available through GetGlobalLogger and the
// package-level Debug/Info/Warn/Error helpers. It is configured once at startup
// with InitGlobalLogger:
//
//	closeLog, err := logging.InitGlobalLogger("debug", "", true)
//	if err != nil {
//		return err
//	}
//	defer closeLog()
//
//	logger := logging.GetGlobalLogger().WithFields(logging.String("component", "cache"))
//	logger.Info("Cache cleared", logging.Int("removed", 12))
//
// Request-scoped loggers pick up the request id stored with ContextWithRequestID:
//
//	logging.WithContext(r.Context()).Warn("Cache write rejected")
package logging

import (
	"context"
	"io"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// LogLevel is the minimum severity a logger writes.
type LogLevel = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

// ParseLevel maps LOG_LEVEL values to a level. Unknown values mean info.
func ParseLevel(level string) LogLevel {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return WarnLevel
	}
	parsed, err := zapcore.ParseLevel(level)
	if err != nil || parsed > ErrorLevel {
		return InfoLevel
	}
	return parsed
}

// Logger defines the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	WithFields(fields ...Field) Logger
	WithContext(ctx context.Context) Logger
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level LogLevel
	// Output defaults to stdout.
	Output io.Writer
	// JSON switches the encoder from console to JSON lines.
	JSON bool
	// Name is attached to every entry as the logger name.
	Name string
}

// Field is a key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration fields are encoded in milliseconds.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field with key "error"
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}
