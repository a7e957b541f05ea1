package node

import (
	"container/list"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/atomic"
)

const (
	defaultFilterCacheCapacity = 1000
	defaultFilterCacheExpiry   = 10 * time.Minute
)

// filterKey identifies one evaluated filter on one shard generation. A
// redeployed shard gets a fresh generation, so stale doc id sets can
// never be served against new content.
func filterKey(filter []byte, shard string, generation int64) string {
	h := sha1.New()
	h.Write(filter)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum) + "/" + shard + "/" + strconv.FormatInt(generation, 10)
}

type filterEntry struct {
	key      string
	bitmap   *roaring.Bitmap
	accessed time.Time
}

// filterCache is an access-expiring LRU of evaluated filter bitmaps.
type filterCache struct {
	capacity int
	expiry   time.Duration
	order    *list.List
	entries  map[string]*list.Element
	hits     *atomic.Int64
	now      func() time.Time
}

func newFilterCache(capacity int, expiry time.Duration) *filterCache {
	return &filterCache{
		capacity: capacity,
		expiry:   expiry,
		order:    list.New(),
		entries:  map[string]*list.Element{},
		hits:     atomic.NewInt64(0),
		now:      time.Now,
	}
}

// Get returns the cached bitmap and refreshes its access time. Callers
// hold the owning shard manager's lock; the cache itself is not
// goroutine safe.
func (c *filterCache) Get(key string) *roaring.Bitmap {
	el, ok := c.entries[key]
	if !ok {
		return nil
	}
	entry := el.Value.(*filterEntry)
	if c.now().Sub(entry.accessed) > c.expiry {
		c.remove(el)
		return nil
	}
	entry.accessed = c.now()
	c.order.MoveToFront(el)
	c.hits.Inc()
	return entry.bitmap
}

func (c *filterCache) Put(key string, bm *roaring.Bitmap) {
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*filterEntry)
		entry.bitmap = bm
		entry.accessed = c.now()
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&filterEntry{key: key, bitmap: bm, accessed: c.now()})
	c.entries[key] = el
	c.evict()
}

func (c *filterCache) evict() {
	for c.order.Len() > c.capacity {
		c.remove(c.order.Back())
	}
	// sweep expired entries from the cold end
	for el := c.order.Back(); el != nil; {
		entry := el.Value.(*filterEntry)
		if c.now().Sub(entry.accessed) <= c.expiry {
			break
		}
		prev := el.Prev()
		c.remove(el)
		el = prev
	}
}

func (c *filterCache) remove(el *list.Element) {
	entry := el.Value.(*filterEntry)
	c.order.Remove(el)
	delete(c.entries, entry.key)
}

func (c *filterCache) Hits() int64 {
	return c.hits.Load()
}

func (c *filterCache) Len() int {
	return c.order.Len()
}
