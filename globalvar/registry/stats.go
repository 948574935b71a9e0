package registry

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats is a point-in-time snapshot of registry shape and occupancy.
//
// Shards are sampled one at a time, so Entries may lag concurrent writers by
// a few operations; the snapshot is exact when the registry is quiescent.
type Stats struct {
	// Entries is the total number of live slots.
	Entries int64 `json:"entries"`

	// Shards is the number of shards the registry was built with.
	Shards int `json:"shards"`

	// MaxShardEntries is the occupancy of the fullest shard, a quick signal
	// for skewed key distributions.
	MaxShardEntries int64 `json:"maxShardEntries"`
}

// Stats returns a snapshot of the registry's current occupancy.
func (r *Registry) Stats() Stats {
	stats := Stats{Shards: r.shardCount}

	for _, sh := range r.shards {
		n := int64(sh.entryCount())

		stats.Entries += n
		if n > stats.MaxShardEntries {
			stats.MaxShardEntries = n
		}
	}

	return stats
}

// String renders the snapshot in a human-friendly form, e.g.
// "1,204,000 entries across 16 shards (fullest: 76,102)".
func (s Stats) String() string {
	return fmt.Sprintf(
		"%s entries across %s shards (fullest: %s)",
		humanize.Comma(s.Entries),
		humanize.Comma(int64(s.Shards)),
		humanize.Comma(s.MaxShardEntries),
	)
}
