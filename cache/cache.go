package cache

import (
	"context"
	"errors"

	"github.com/samber/mo"
)

// Key identifies a cache entry.
type Key = uint16

// Sentinel errors for cache configuration.
var (
	ErrInvalidTTL    = errors.New("cache: ttl must be positive")
	ErrInvalidShards = errors.New("cache: shard count must be a power of two")
)

// Cache is the interface for the shared TTL store.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: no method fails; Get returns mo.None on miss or expiry.
// - Ordering: per key, the last Insert to complete wins.
type Cache interface {
	// Get returns the live value for key, or mo.None if there is none.
	Get(ctx context.Context, key Key) mo.Option[string]

	// Insert replaces the entry for key and restarts its expiry window.
	Insert(ctx context.Context, key Key, value string)

	// Delete removes the entry for key. Idempotent.
	Delete(ctx context.Context, key Key)
}
