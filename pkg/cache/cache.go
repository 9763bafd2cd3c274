// Package cache provides the caching layer for probe results, layouts and
// rendered artifacts.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for the HTTP endpoint
//   - [NullCache]: caching disabled
//
// # Keys
//
// A [Keyer] derives keys for each pipeline stage. Keys hash every input that
// affects the stage's output, so a change in container width, breakpoints or
// output format never serves a stale entry:
//
//	k := cache.NewDefaultKeyer()
//	key := k.LayoutKey(itemsHash, cache.LayoutKeyOpts{Width: 1024, RowHeight: 200, Gap: 12})
//
// [ScopedKeyer] prefixes all keys, giving each tenant of a shared backend its
// own namespace.
//
// # Errors
//
// Backends return [Retryable] errors for transient failures (network, timeouts).
// [RetryWithBackoff] retries only those.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. hit is false on a miss or an expired entry.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Default time-to-live per stage.
const (
	// TTLProbe covers decoded image headers. Keys include file size and
	// modification time, so edits invalidate entries regardless.
	TTLProbe = 30 * 24 * time.Hour
	// TTLLayout covers packed layouts.
	TTLLayout = 7 * 24 * time.Hour
	// TTLArtifact covers rendered outputs (SVG, HTML, PNG, PDF, JSON).
	TTLArtifact = 7 * 24 * time.Hour
	// TTLResponse covers HTTP layout responses.
	TTLResponse = 10 * time.Minute
)
