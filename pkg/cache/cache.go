// Package cache provides byte-level caching for decoded assets and
// rendered artifacts.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON entry files under a directory, for the CLI
//   - [RedisCache]: shared cache for multi-instance servers
//   - [NullCache]: caching disabled
//
// Keys are built by a [Keyer] so every component hashes its inputs the
// same way. Wrap a keyer with [NewScopedKeyer] to give one deployment its
// own namespace in a shared Redis.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Default time-to-live per entry kind.
const (
	// TTLAsset applies to raw asset bytes fetched from a Source.
	TTLAsset = 24 * time.Hour
	// TTLArtifact applies to rendered PNGs.
	TTLArtifact = 7 * 24 * time.Hour
)
