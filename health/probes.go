package health

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jonwraymond/ttlserve/cache"
)

// CacheStats is the view of the store the cache checker needs.
type CacheStats interface {
	Stats() cache.Stats
}

// CacheChecker reports store occupancy. It is degraded once the entry
// count reaches limit; a zero limit means the store is unbounded.
type CacheChecker struct {
	store CacheStats
	limit uint64
}

// NewCacheChecker creates a checker for store.
func NewCacheChecker(store CacheStats, limit uint64) *CacheChecker {
	return &CacheChecker{store: store, limit: limit}
}

// Name returns "cache".
func (c *CacheChecker) Name() string { return "cache" }

// Check reads the store counters. It never touches entries.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context done", err)
	}

	s := c.store.Stats()
	details := map[string]any{
		"entries":     s.Entries,
		"hits":        s.Hits,
		"misses":      s.Misses,
		"expirations": s.Expirations,
	}

	if c.limit > 0 && uint64(s.Entries) >= c.limit {
		r := Degraded(fmt.Sprintf("%d of %d entries in use", s.Entries, c.limit))
		r.Error = ErrCacheFull
		return r.WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d entries", s.Entries)).WithDetails(details)
}

// Gate is a readiness switch. It starts open and closes once Drain is
// called; it never reopens.
type Gate struct {
	draining atomic.Bool
}

// NewGate returns an open gate.
func NewGate() *Gate {
	return &Gate{}
}

// Drain closes the gate. It is safe to call more than once.
func (g *Gate) Drain() {
	g.draining.Store(true)
}

// Draining reports whether Drain was called.
func (g *Gate) Draining() bool {
	return g.draining.Load()
}

// Name returns "drain".
func (g *Gate) Name() string { return "drain" }

// Check is unhealthy once the gate is closed.
func (g *Gate) Check(context.Context) Result {
	if g.Draining() {
		return Unhealthy("shutting down", ErrDraining)
	}
	return Healthy("accepting requests")
}

var (
	_ Checker = (*CacheChecker)(nil)
	_ Checker = (*Gate)(nil)
)
