package node

import (
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
)

func TestFilterCacheHitCounting(t *testing.T) {
	c := newFilterCache(10, time.Minute)
	key := filterKey([]byte("type:article"), "shard0", 1)
	assert.Nil(t, c.Get(key))
	assert.EqualValues(t, 0, c.Hits())

	c.Put(key, roaring.BitmapOf(1, 2, 3))
	got := c.Get(key)
	assert.NotNil(t, got)
	assert.EqualValues(t, 3, got.GetCardinality())
	assert.EqualValues(t, 1, c.Hits())
}

func TestFilterCacheGenerationsDoNotCollide(t *testing.T) {
	c := newFilterCache(10, time.Minute)
	old := filterKey([]byte("f"), "shard0", 1)
	fresh := filterKey([]byte("f"), "shard0", 2)
	c.Put(old, roaring.BitmapOf(1))
	assert.Nil(t, c.Get(fresh))
}

func TestFilterCacheCapacityEviction(t *testing.T) {
	c := newFilterCache(2, time.Minute)
	c.Put("a", roaring.New())
	c.Put("b", roaring.New())
	c.Put("c", roaring.New())
	assert.Equal(t, 2, c.Len())
	assert.Nil(t, c.Get("a"))
	assert.NotNil(t, c.Get("c"))
}

func TestFilterCacheAccessExpiry(t *testing.T) {
	c := newFilterCache(10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Put("a", roaring.New())

	now = now.Add(30 * time.Second)
	assert.NotNil(t, c.Get("a"))

	// access above refreshed the entry; a full expiry window later it
	// is gone
	now = now.Add(61 * time.Second)
	assert.Nil(t, c.Get("a"))
	assert.Equal(t, 0, c.Len())
}

func TestExecutorRunsQueuedTasks(t *testing.T) {
	e := newExecutor(2, 4)
	defer e.Close()
	done := make(chan int, 20)
	for i := 0; i < 20; i++ {
		i := i
		e.Submit(func() { done <- i })
	}
	seen := map[int]bool{}
	for i := 0; i < 20; i++ {
		select {
		case v := <-done:
			seen[v] = true
		case <-time.After(2 * time.Second):
			t.Fatal("tasks did not complete")
		}
	}
	assert.Len(t, seen, 20)
}

func TestSearchTimerAdvances(t *testing.T) {
	timer := newSearchTimer()
	defer timer.Close()
	start := timer.Ticks()
	time.Sleep(5 * timerGranularity)
	assert.Greater(t, timer.Ticks(), start)
	assert.EqualValues(t, 1, budgetTicks(timerGranularity))
	assert.EqualValues(t, 8, budgetTicks(75*time.Millisecond))
}
