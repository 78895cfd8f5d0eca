// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"context"
)

// contextKey is the key of the Logger stored in a context. Its type is unexported
// so no other package can collide with it.
var contextKey = struct{ name string }{name: "shotatlogging.logger"}

// WithContext returns a copy of ctx carrying logger, usually a handle obtained
// from a Registry so that records follow its active configuration.
func WithContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, contextKey, logger)
}

// FromContext returns the Logger carried by ctx. Without one it returns a logger
// bound to a registry that is never applied: every record it receives is dropped
// and the names derived from it with WithName are not tracked.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return nullLogger
	}

	if logger, ok := ctx.Value(contextKey).(Logger); ok {
		return logger
	}

	return nullLogger
}
