package sidecar

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// ContextWithLogger carries the invocation logger to the stages that run
// under ctx.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func LoggerFromContext(ctx context.Context) (*slog.Logger, bool) {
	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	return logger, ok && logger != nil
}
