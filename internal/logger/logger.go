// Package logger holds the process zap logger and carries request-scoped
// loggers through a context.
package logger

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the level, the encoding ("json" or "console") and the
// sink ("stdout", "stderr" or a file path that is appended to).
type Options struct {
	Level  string
	Format string
	Output string
}

var base = zap.NewNop()

type ctxKey struct{}

// New builds a logger from opts without touching the process logger.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder

	var encoder zapcore.Encoder
	switch opts.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(enc)
	case "", "console":
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	sink, err := openSink(opts.Output)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(encoder, sink, level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("service", "idverify")), nil
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return zapcore.AddSync(f), nil
}

// Init builds the process logger and installs it as zap's global.
func Init(opts Options) error {
	l, err := New(opts)
	if err != nil {
		return err
	}
	base = l
	zap.ReplaceGlobals(l)
	return nil
}

// L returns the process logger.
func L() *zap.Logger {
	return base
}

// With returns the process logger with fields attached.
func With(fields ...zap.Field) *zap.Logger {
	return base.With(fields...)
}

// NewContext stores l as the request logger of ctx.
func NewContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request logger stored in ctx, if any.
func FromContext(ctx context.Context) (*zap.Logger, bool) {
	l, ok := ctx.Value(ctxKey{}).(*zap.Logger)
	return l, ok && l != nil
}

// Ctx returns the request logger of ctx, else the process logger.
func Ctx(ctx context.Context) *zap.Logger {
	if l, ok := FromContext(ctx); ok {
		return l
	}
	return base
}

func Sync() {
	_ = base.Sync()
}
