// Package cache provides the process-wide time-bounded key/value store.
//
// A Store keeps at most one live entry per key. An entry is live while less
// than the configured TTL has passed since it was last inserted; reads never
// return an expired value and never extend the expiry window. Writes reset it.
//
// Keys are spread over independent shards, each backed by a
// github.com/jellydator/ttlcache/v3 cache with its own lock, so operations on
// keys that land in different shards never contend. Operations on the same key
// serialize and the last insert to complete wins.
//
// A Store is created once and shared by pointer; it is safe for concurrent use.
package cache
