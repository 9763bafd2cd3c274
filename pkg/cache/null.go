package cache

import (
	"context"
	"time"
)

// NullCache stands in for a backend when caching is off. Every lookup misses,
// so probes, layouts and renders are always recomputed.
type NullCache struct {
	reason string
}

// NewNullCache returns a cache that stores nothing. reason explains why
// caching is off (for example "--no-cache") and shows up in debug logs.
func NewNullCache(reason string) *NullCache {
	return &NullCache{reason: reason}
}

// Reason reports why caching is disabled.
func (c *NullCache) Reason() string { return c.reason }

func (c *NullCache) String() string { return "disabled (" + c.reason + ")" }

func (c *NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (c *NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (c *NullCache) Delete(context.Context, string) error { return nil }

func (c *NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
