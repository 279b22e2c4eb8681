// Package cache provides the key/value stores behind netlistdb's graph
// cache.
//
// # Backends
//
//   - [FileCache]: one file per key under a directory, replaced atomically
//     (default for the CLI, $XDG_CACHE_HOME/netlistdb)
//   - [RedisCache]: keys in a Redis namespace, for caches shared by several
//     machines
//   - [MongoCache]: documents in a MongoDB collection with a TTL index
//   - [NullCache]: stores nothing (caching disabled)
//
// Values are opaque bytes; the pipeline stores graph artifacts and rendered
// hierarchy diagrams. Staleness with respect to the netlist source is decided
// by the pipeline from the artifact's fingerprint, not by the cache. TTLs
// only bound how long an entry may live at all.
//
// # Keys
//
// Keys are built by a [Keyer] so that all callers agree on the key of a
// source file or a rendering:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.GraphKey("/work/adder.v")
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. Set replaces any existing value for key atomically, so a
// concurrent or later Get sees either the old or the new value, never a mix.
// A ttl of zero means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}
