package xlog

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKeyType int

const loggerKey loggerKeyType = iota

// NewContext derives a child logger with fields and binds it to a new context.
func NewContext(ctx context.Context, fields ...zapcore.Field) context.Context {
	return context.WithValue(ctx, loggerKey, newLogger(Get(ctx).Raw().With(fields...)))
}

// WithLogger binds l to a new context, replacing whatever logger ctx carried.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, newLogger(l))
}

// FromContext moves the logger of srcCtx, extended with fields, onto destCtx.
func FromContext(srcCtx, destCtx context.Context, fields ...zapcore.Field) context.Context {
	srcLogger := Get(srcCtx).Raw()
	return context.WithValue(destCtx, loggerKey, newLogger(srcLogger.With(fields...)))
}

// Get returns the logger bound to ctx, falling back to the global one.
func Get(ctx context.Context) Logger {
	if ctx == nil {
		return gLogger
	}
	if ctxLogger, ok := ctx.Value(loggerKey).(Logger); ok {
		return ctxLogger
	}
	return gLogger
}
