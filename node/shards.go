package node

import (
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kattaio/katta/common"
	"github.com/kattaio/katta/engine"
)

// shardHandle is a ref-counted open shard. Queries pin the handle for
// their duration; an undeploy marks it dropped and the last release
// closes the reader. A redeploy of the same shard name gets a new
// handle with a new generation.
type shardHandle struct {
	name       string
	reader     engine.ShardReader
	generation int64

	mu      sync.Mutex
	refs    int
	dropped bool
}

func (h *shardHandle) acquire() {
	h.mu.Lock()
	h.refs++
	h.mu.Unlock()
}

func (h *shardHandle) release() {
	h.mu.Lock()
	h.refs--
	closeNow := h.dropped && h.refs == 0
	h.mu.Unlock()
	if closeNow {
		_ = h.reader.Close()
	}
}

func (h *shardHandle) drop() {
	h.mu.Lock()
	h.dropped = true
	closeNow := h.refs == 0
	h.mu.Unlock()
	if closeNow {
		_ = h.reader.Close()
	}
}

// shardManager owns the open shards of a node and the filter cache
// keyed by their generations.
type shardManager struct {
	mu         sync.Mutex
	shards     map[string]*shardHandle
	generation int64
	filters    *filterCache
}

func newShardManager() *shardManager {
	return &shardManager{
		shards:  map[string]*shardHandle{},
		filters: newFilterCache(defaultFilterCacheCapacity, defaultFilterCacheExpiry),
	}
}

func (m *shardManager) add(name string, reader engine.ShardReader) {
	m.mu.Lock()
	old := m.shards[name]
	m.generation++
	m.shards[name] = &shardHandle{name: name, reader: reader, generation: m.generation}
	m.mu.Unlock()
	if old != nil {
		old.drop()
	}
}

func (m *shardManager) remove(name string) {
	m.mu.Lock()
	h := m.shards[name]
	delete(m.shards, name)
	m.mu.Unlock()
	if h != nil {
		h.drop()
	}
}

func (m *shardManager) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.shards))
	for name := range m.shards {
		out = append(out, name)
	}
	return out
}

// pin acquires handles for all named shards or none. The returned
// release must be called once the query is finished with the readers.
func (m *shardManager) pin(names []string) ([]*shardHandle, func(), error) {
	m.mu.Lock()
	handles := make([]*shardHandle, 0, len(names))
	for _, name := range names {
		h, ok := m.shards[name]
		if !ok {
			m.mu.Unlock()
			return nil, nil, fmt.Errorf("%w: %s", common.ErrShardUnavailable, name)
		}
		handles = append(handles, h)
	}
	for _, h := range handles {
		h.acquire()
	}
	m.mu.Unlock()
	release := func() {
		for _, h := range handles {
			h.release()
		}
	}
	return handles, release, nil
}

// cachedFilter evaluates the filter against the shard, consulting the
// cache first.
func (m *shardManager) cachedFilter(h *shardHandle, filter []byte) (*roaring.Bitmap, error) {
	key := filterKey(filter, h.name, h.generation)
	m.mu.Lock()
	bm := m.filters.Get(key)
	m.mu.Unlock()
	if bm != nil {
		return bm, nil
	}
	bm, err := h.reader.Filter(filter)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.filters.Put(key, bm)
	m.mu.Unlock()
	return bm, nil
}

func (m *shardManager) closeAll() {
	m.mu.Lock()
	shards := m.shards
	m.shards = map[string]*shardHandle{}
	m.mu.Unlock()
	for _, h := range shards {
		h.drop()
	}
}
