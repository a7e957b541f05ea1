package client

import (
	"sync"
	"time"
)

const defaultUnreachableWindow = 30 * time.Second

// nodeSelector picks one replica per shard. Selection is round-robin
// seeded per shard and sticky afterwards: a shard keeps hitting the
// same replica until that node fails, which spreads shards across
// replicas while keeping per-shard affinity warm.
type nodeSelector struct {
	mu        sync.Mutex
	cursor    map[string]int
	seed      int
	downUntil map[string]time.Time
	window    time.Duration
	now       func() time.Time
}

func newNodeSelector(window time.Duration) *nodeSelector {
	if window <= 0 {
		window = defaultUnreachableWindow
	}
	return &nodeSelector{
		cursor:    map[string]int{},
		downUntil: map[string]time.Time{},
		window:    window,
		now:       time.Now,
	}
}

// pick returns the replica a query for shard should go to, skipping
// excluded nodes and nodes flagged unreachable inside the window.
func (s *nodeSelector) pick(shard string, replicas []string, exclude map[string]bool) (string, bool) {
	if len(replicas) == 0 {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	start, ok := s.cursor[shard]
	if !ok {
		start = s.seed
		s.seed++
	}
	for i := 0; i < len(replicas); i++ {
		idx := (start + i) % len(replicas)
		node := replicas[idx]
		if exclude[node] {
			continue
		}
		if until, down := s.downUntil[node]; down && s.now().Before(until) {
			continue
		}
		s.cursor[shard] = idx
		return node, true
	}
	return "", false
}

// markUnreachable flags a node after a failed RPC; pick skips it until
// the window elapses.
func (s *nodeSelector) markUnreachable(node string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downUntil[node] = s.now().Add(s.window)
}
