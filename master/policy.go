package master

import "sort"

// PlacementPolicy picks which nodes should host a shard.
type PlacementPolicy interface {
	// Choose returns up to count candidates. load carries the current
	// number of shards assigned per node.
	Choose(shard string, candidates []string, load map[string]int, count int) []string
}

// LeastLoadedPolicy spreads shards onto the emptiest nodes, breaking
// load ties by node name so placement is deterministic.
type LeastLoadedPolicy struct{}

func (LeastLoadedPolicy) Choose(_ string, candidates []string, load map[string]int, count int) []string {
	if count <= 0 || len(candidates) == 0 {
		return nil
	}
	ranked := append([]string(nil), candidates...)
	sort.Slice(ranked, func(i, j int) bool {
		if load[ranked[i]] != load[ranked[j]] {
			return load[ranked[i]] < load[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if count > len(ranked) {
		count = len(ranked)
	}
	return ranked[:count]
}
