// Package toolutil provides shared helper functions for go_transcript MCP tools.
package toolutil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// CachedJSON returns the cached value under key, or computes, stores and returns it.
// Errors from fn are never cached.
func CachedJSON[T any](ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	if out, ok := engine.CacheLoadJSON[T](ctx, key); ok {
		return out, nil
	}
	out, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	engine.CacheStoreJSON(ctx, key, out)
	return out, nil
}

// ParseDate accepts the loose date formats callers send ("2024-03-01",
// "March 1, 2024", "1 Mar 2024") as UTC. Empty input is the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q: %w", s, err)
	}
	return t, nil
}

// ErrorKind names the acquisition error kind for tool output; "" for nil.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	return engine.KindOf(err).String()
}
