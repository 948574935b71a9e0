package registry

import (
	"sync"

	xxhash "github.com/cespare/xxhash/v2"
)

// shard encapsulates one slice of the keyspace: a slot map plus its lock.
//
// Each key maps to exactly one shard for the lifetime of the registry, so a
// single shard lock is sufficient for every per-key operation.
type shard struct {
	// slots is the map of key to stored slot.
	slots map[string]*slot

	// mu guards slots. View holds it for reading and Update for writing
	// across the whole caller callback, not just the map lookup.
	mu sync.RWMutex
}

// shardFor returns the shard responsible for key.
func (r *Registry) shardFor(key string) *shard {
	return r.shards[r.hashKey(key)]
}

// hashKey hashes the key to a shard index.
//
// xxhash keeps the distribution uniform at effectively the same cost as the
// weaker sum-of-bytes alternatives, so it is used unconditionally.
func (r *Registry) hashKey(key string) int {
	if r.shardCount == 1 {
		return 0
	}

	//nolint:gosec // shardCount is always >= 1, see NewRegistry.
	return int(xxhash.Sum64String(key) % uint64(r.shardCount))
}

// entryCount safely reads the number of slots in a shard.
func (sh *shard) entryCount() int {
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	return len(sh.slots)
}

// clearLocked resets the shard's slot map.
// Caller must hold sh.mu.
func (sh *shard) clearLocked() {
	if sh.slots == nil {
		sh.slots = make(map[string]*slot)
	} else {
		clear(sh.slots)
	}
}
