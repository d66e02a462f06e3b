package logging

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
)

var global atomic.Pointer[Logger]

// GetGlobalLogger returns the process-wide logger. Until InitGlobalLogger or
// SetGlobalLogger runs it is an info-level console logger on stdout.
func GetGlobalLogger() Logger {
	if l := global.Load(); l != nil {
		return *l
	}
	fallback, err := NewZapLogger(LogConfig{Level: InfoLevel})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default zap logger: %v", err))
	}
	global.CompareAndSwap(nil, &fallback)
	return *global.Load()
}

// SetGlobalLogger replaces the process-wide logger.
func SetGlobalLogger(logger Logger) {
	global.Store(&logger)
}

// InitGlobalLogger builds the process-wide logger. An empty logFile logs to stdout.
// The returned closer releases the log file, if one was opened.
func InitGlobalLogger(level string, logFile string, json bool) (func() error, error) {
	config := LogConfig{
		Level: ParseLevel(level),
		JSON:  json,
	}

	closer := func() error { return nil }
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		config.Output = file
		closer = file.Close
	}

	logger, err := NewZapLogger(config)
	if err != nil {
		_ = closer()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	SetGlobalLogger(logger)

	logger.Info("Logger initialized",
		String("level", config.Level.CapitalString()),
		String("log_file", logFile),
		Bool("json", json),
	)
	return closer, nil
}

// MustSync flushes the global logger. Call it before the process exits.
func MustSync() {
	if z, ok := GetGlobalLogger().(*ZapLogger); ok {
		_ = z.Sync()
	}
}

func Debug(msg string, fields ...Field) {
	GetGlobalLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...Field) {
	GetGlobalLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...Field) {
	GetGlobalLogger().Warn(msg, fields...)
}

func Error(msg string, err error, fields ...Field) {
	GetGlobalLogger().Error(msg, err, fields...)
}

// WithContext returns the global logger enriched from ctx.
func WithContext(ctx context.Context) Logger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithFields returns the global logger with fields attached.
func WithFields(fields ...Field) Logger {
	return GetGlobalLogger().WithFields(fields...)
}

type contextKey string

const requestIDKey contextKey = "request_id"

// ContextWithRequestID returns a context carrying a request id that WithContext picks up.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}
