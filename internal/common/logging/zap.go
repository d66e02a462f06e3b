package logging

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements Logger on top of a *zap.Logger.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger builds a zap-backed logger. Levels are written in capitals, times
// as RFC 3339 and durations in milliseconds.
func NewZapLogger(config LogConfig) (Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeDuration = zapcore.MillisDurationEncoder

	encoder := zapcore.NewConsoleEncoder(encoderConfig)
	if config.JSON {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	out := zapcore.Lock(zapcore.AddSync(os.Stdout))
	if config.Output != nil {
		out = zapcore.AddSync(config.Output)
	}

	logger := zap.New(zapcore.NewCore(encoder, out, config.Level), zap.AddCaller(), zap.AddCallerSkip(1))
	if config.Name != "" {
		logger = logger.Named(config.Name)
	}
	return &ZapLogger{logger: logger}, nil
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	return &ZapLogger{logger: zap.NewNop()}
}

func (z *ZapLogger) Debug(msg string, fields ...Field) {
	z.logger.Debug(msg, toZap(fields)...)
}

func (z *ZapLogger) Info(msg string, fields ...Field) {
	z.logger.Info(msg, toZap(fields)...)
}

func (z *ZapLogger) Warn(msg string, fields ...Field) {
	z.logger.Warn(msg, toZap(fields)...)
}

// Error logs msg with err under the "error" key. A nil err is omitted.
func (z *ZapLogger) Error(msg string, err error, fields ...Field) {
	zf := toZap(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	z.logger.Error(msg, zf...)
}

// WithFields returns a child logger. With no fields it returns z itself.
func (z *ZapLogger) WithFields(fields ...Field) Logger {
	if len(fields) == 0 {
		return z
	}
	return &ZapLogger{logger: z.logger.With(toZap(fields)...)}
}

// WithContext adds the request id carried by ctx, if any.
func (z *ZapLogger) WithContext(ctx context.Context) Logger {
	requestID, ok := RequestIDFromContext(ctx)
	if !ok {
		return z
	}
	return &ZapLogger{logger: z.logger.With(zap.String("request_id", requestID))}
}

// Sync flushes any buffered log entries
func (z *ZapLogger) Sync() error {
	return z.logger.Sync()
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out[i] = zap.String(f.Key, v)
		case int:
			out[i] = zap.Int(f.Key, v)
		case int64:
			out[i] = zap.Int64(f.Key, v)
		case bool:
			out[i] = zap.Bool(f.Key, v)
		case time.Duration:
			out[i] = zap.Duration(f.Key, v)
		case error:
			out[i] = zap.NamedError(f.Key, v)
		default:
			out[i] = zap.Any(f.Key, v)
		}
	}
	return out
}
