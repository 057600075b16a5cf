package cache

import (
	"fmt"
	"time"
)

const (
	// DefaultTTL is the process-wide entry lifetime.
	DefaultTTL = 30 * time.Minute

	// DefaultShards is used when neither Shards nor CapacityHint is set.
	DefaultShards = 16

	// MaxShards caps the shard count derived from CapacityHint.
	MaxShards = 256

	entriesPerShard = 64
)

// Config configures a Store.
type Config struct {
	// TTL is how long an entry stays live after its last insert.
	// Default: DefaultTTL
	TTL time.Duration

	// CapacityHint is the expected number of keys. It only sizes the shard
	// count and never bounds the store.
	CapacityHint int

	// MaxEntries bounds the number of entries when non-zero. The bound is
	// split evenly across shards, so it is enforced per shard.
	// Default: 0 (unbounded, TTL-only expiration)
	MaxEntries uint64

	// Shards is the number of independent partitions. Must be a power of two.
	// Default: derived from CapacityHint
	Shards int
}

// DefaultConfig returns the configuration used by the service: a 30 minute
// TTL with no size bound.
func DefaultConfig() Config {
	return Config{TTL: DefaultTTL}
}

// Validate reports configuration errors that normalization cannot repair.
func (c Config) Validate() error {
	if c.TTL < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTTL, c.TTL)
	}
	if c.Shards < 0 || (c.Shards > 0 && c.Shards&(c.Shards-1) != 0) {
		return fmt.Errorf("%w: %d", ErrInvalidShards, c.Shards)
	}
	return nil
}

// normalize fills defaults. It assumes Validate passed.
func (c Config) normalize() Config {
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.Shards == 0 {
		c.Shards = shardsFor(c.CapacityHint)
	}
	return c
}

// shardsFor picks a power-of-two shard count for the expected key count.
func shardsFor(hint int) int {
	if hint <= 0 {
		return DefaultShards
	}
	n := 1
	for n*entriesPerShard < hint && n < MaxShards {
		n <<= 1
	}
	return n
}

// perShardCapacity splits MaxEntries across shards, rounding up.
func (c Config) perShardCapacity() uint64 {
	if c.MaxEntries == 0 {
		return 0
	}
	shards := uint64(c.Shards)
	return (c.MaxEntries + shards - 1) / shards
}
