package log

import (
	"context"

	"github.com/go-logr/logr"
)

// FromContext returns the logger carried by ctx. Without one, logs are discarded.
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}

func WithLogger(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// Named returns the logger carried by ctx with name appended to its name.
func Named(ctx context.Context, name string) logr.Logger {
	return FromContext(ctx).WithName(name)
}
