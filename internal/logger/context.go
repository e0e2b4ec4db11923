package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts the request logger, falling back to the given one (or a no-op).
func FromContext(ctx context.Context, fallback ...*zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	if len(fallback) > 0 && fallback[0] != nil {
		return fallback[0]
	}
	return zap.NewNop()
}
