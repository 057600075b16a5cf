package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/samber/mo"
)

type shard = ttlcache.Cache[Key, string]

// Store is the sharded in-memory TTL store.
//
// Expiry is checked lazily on every read. Start runs an optional background
// janitor per shard that removes expired entries without waiting for a read.
type Store struct {
	cfg       Config
	shards    []*shard
	shardMask uint32

	expirations atomic.Uint64

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// Stats is a point-in-time snapshot of store counters, summed over shards.
type Stats struct {
	Entries     int
	Insertions  uint64
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Expirations uint64
}

// New creates a Store. The returned Store is the shared handle: pass it by
// pointer to every component that needs it.
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalize()

	opts := []ttlcache.Option[Key, string]{
		ttlcache.WithTTL[Key, string](cfg.TTL),
		// Reads must not extend an entry's lifetime.
		ttlcache.WithDisableTouchOnHit[Key, string](),
	}
	if capacity := cfg.perShardCapacity(); capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[Key, string](capacity))
	}

	s := &Store{
		cfg:       cfg,
		shards:    make([]*shard, cfg.Shards),
		shardMask: uint32(cfg.Shards - 1),
	}
	for i := range s.shards {
		sh := ttlcache.New[Key, string](opts...)
		sh.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, _ *ttlcache.Item[Key, string]) {
			if reason == ttlcache.EvictionReasonExpired {
				s.expirations.Add(1)
			}
		})
		s.shards[i] = sh
	}
	return s, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg Config) *Store {
	s, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Store) shard(key Key) *shard {
	return s.shards[uint32(key)&s.shardMask]
}

// Get returns the live value for key. It returns mo.None when the key was
// never inserted, was deleted or evicted, or its entry has expired.
func (s *Store) Get(_ context.Context, key Key) mo.Option[string] {
	item := s.shard(key).Get(key)
	if item == nil || item.IsExpired() {
		return mo.None[string]()
	}
	return mo.Some(item.Value())
}

// Insert replaces the entry for key. The new entry's expiry window starts
// when the insert completes.
func (s *Store) Insert(_ context.Context, key Key, value string) {
	s.shard(key).Set(key, value, ttlcache.DefaultTTL)
}

// Delete removes the entry for key. Idempotent.
func (s *Store) Delete(_ context.Context, key Key) {
	s.shard(key).Delete(key)
}

// Len returns the number of stored entries, including expired entries the
// janitor has not removed yet.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Len()
	}
	return n
}

// TTL returns the entry lifetime in effect.
func (s *Store) TTL() time.Duration {
	return s.cfg.TTL
}

// Stats returns counters summed across shards.
func (s *Store) Stats() Stats {
	var st Stats
	for _, sh := range s.shards {
		m := sh.Metrics()
		st.Insertions += m.Insertions
		st.Hits += m.Hits
		st.Misses += m.Misses
		st.Evictions += m.Evictions
		st.Entries += sh.Len()
	}
	st.Expirations = s.expirations.Load()
	return st
}

// OnExpire registers fn to be called when the janitor or a read removes an
// expired entry. The returned func unregisters it.
func (s *Store) OnExpire(fn func(key Key, value string)) (unsubscribe func()) {
	unsubs := make([]func(), 0, len(s.shards))
	for _, sh := range s.shards {
		unsubs = append(unsubs, sh.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[Key, string]) {
			if reason == ttlcache.EvictionReasonExpired {
				fn(item.Key(), item.Value())
			}
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Start launches the background expiry janitor for every shard.
// Calling Start on a running Store is a no-op.
func (s *Store) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	for _, sh := range s.shards {
		s.wg.Add(1)
		go func(sh *shard) {
			defer s.wg.Done()
			sh.Start()
		}(sh)
	}
}

// Stop halts the janitors started by Start and waits for them to exit.
// Stop is safe to call multiple times and on a Store that was never started.
func (s *Store) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	for _, sh := range s.shards {
		sh.Stop()
	}
	s.wg.Wait()
}

// Ensure Store implements Cache
var _ Cache = (*Store)(nil)
