package registry

import "runtime"

// MaxShardCount bounds the number of shards a registry may be built with.
// Beyond this point additional shards only add memory overhead; contention
// on a string-keyed map is already negligible.
const MaxShardCount = 256

// Config holds registry-specific configuration.
type Config struct {
	// ShardCount sets the number of shards backing the registry.
	// If <= 0, defaults to runtime.NumCPU().
	// If > MaxShardCount, capped at MaxShardCount.
	ShardCount int
}

// GetShardCount returns the effective shard count for the registry.
// A nil Config behaves like the zero value.
func (cfg *Config) GetShardCount() int {
	var shards int
	if cfg != nil {
		shards = cfg.ShardCount
	}

	if shards <= 0 {
		shards = max(1, runtime.NumCPU())
	}

	if shards > MaxShardCount {
		shards = MaxShardCount
	}

	return shards
}
