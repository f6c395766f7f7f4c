package slg

import (
	"context"

	"log/slog"
)

type slogStruct struct {
	Name string
}

var slogKey = &slogStruct{Name: "slog"}

// GetSlog returns the request-scoped logger, or fallback when the context
// carries none.
func GetSlog(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if log, ok := ctx.Value(slogKey).(*slog.Logger); ok {
		return log
	}

	return fallback
}

func WithSlog(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, slogKey, log)
}
