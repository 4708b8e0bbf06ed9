// Package context carries the per-request trace id across layers.
package context

import "context"

type requestIDKey struct{}

// WithRequestID stores the request id for downstream log and outbox use.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the stored request id, or "" when none was set.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey{}).(string); ok {
		return s
	}
	return ""
}
