// Package storage provides the durable key-value backends a cart persists into.
package storage

import (
	"context"
	"strings"
)

// KV is a durable string key-value store partitioned by scope.
type KV interface {
	// Get returns the value stored at (scope, key) and whether it exists.
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Set(ctx context.Context, scope, key, value string) error
	Delete(ctx context.Context, scope, key string) error
	Ping(ctx context.Context) error
}

// Change signals that (Scope, Key) was written by Origin.
type Change struct {
	Scope   string `json:"scope"`
	Key     string `json:"key"`
	Origin  string `json:"origin,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Watcher is implemented by backends shared between several writers that can
// signal external changes. Changes written with the watcher's own origin (taken
// from ctx) are not delivered back to it. The channel closes when ctx is done.
type Watcher interface {
	Watch(ctx context.Context, scope, key string) (<-chan Change, error)
}

type originKey struct{}

// WithOrigin tags writes and watches made with ctx as coming from origin.
func WithOrigin(ctx context.Context, origin string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFromContext returns the origin attached by WithOrigin.
func OriginFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(originKey{}).(string); ok {
		return v
	}
	return ""
}

func normalizeScope(scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return "default"
	}
	return scope
}
