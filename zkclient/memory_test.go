package zkclient_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kattaio/katta/zkclient"
)

type childRecorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *childRecorder) listener(_ string, children []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string(nil), children...))
}

func (r *childRecorder) last() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func (r *childRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestMemoryChildSubscription(t *testing.T) {
	store := zkclient.NewMemoryStore()
	sess := store.Session()
	defer sess.Close()
	require.Nil(t, sess.EnsurePath("/katta/nodes"))

	rec := &childRecorder{}
	sub, err := sess.SubscribeChildren("/katta/nodes", rec.listener)
	require.Nil(t, err)
	defer sub.Cancel()

	// initial snapshot first, then one call per mutation
	eventually(t, func() bool { return rec.count() >= 1 })
	assert.Empty(t, rec.last())

	require.Nil(t, sess.CreatePersistent("/katta/nodes/node1", nil))
	eventually(t, func() bool {
		l := rec.last()
		return len(l) == 1 && l[0] == "node1"
	})

	require.Nil(t, sess.Delete("/katta/nodes/node1"))
	eventually(t, func() bool { return len(rec.last()) == 0 && rec.count() >= 3 })
}

func TestMemoryEphemeralExpiry(t *testing.T) {
	store := zkclient.NewMemoryStore()
	owner := store.Session()
	observer := store.Session()
	defer observer.Close()
	require.Nil(t, observer.EnsurePath("/katta/nodes"))

	require.Nil(t, owner.CreateEphemeral("/katta/nodes/node1", nil))
	exists, err := observer.Exists("/katta/nodes/node1")
	require.Nil(t, err)
	assert.True(t, exists)

	rec := &childRecorder{}
	sub, err := observer.SubscribeChildren("/katta/nodes", rec.listener)
	require.Nil(t, err)
	defer sub.Cancel()

	owner.Expire()
	eventually(t, func() bool { return len(rec.last()) == 0 })
	exists, err = observer.Exists("/katta/nodes/node1")
	require.Nil(t, err)
	assert.False(t, exists)

	// expired sessions refuse further operations
	_, err = owner.Exists("/katta/nodes")
	assert.NotNil(t, err)
}

func TestMemoryDataSubscription(t *testing.T) {
	store := zkclient.NewMemoryStore()
	sess := store.Session()
	defer sess.Close()
	require.Nil(t, sess.EnsurePath("/katta"))

	var mu sync.Mutex
	var got []byte
	var gone bool
	sub, err := sess.SubscribeData("/katta/master", func(_ string, data []byte, exists bool) {
		mu.Lock()
		defer mu.Unlock()
		got = data
		gone = !exists
	})
	require.Nil(t, err)
	defer sub.Cancel()

	eventually(t, func() bool { mu.Lock(); defer mu.Unlock(); return gone })

	require.Nil(t, sess.Write("/katta/master", map[string]string{"name": "m1"}))
	eventually(t, func() bool { mu.Lock(); defer mu.Unlock(); return len(got) > 0 && !gone })
}

func TestMemoryUpdate(t *testing.T) {
	store := zkclient.NewMemoryStore()
	sess := store.Session()
	defer sess.Close()
	require.Nil(t, sess.EnsurePath("/katta"))
	require.Nil(t, sess.Write("/katta/counter", 1))

	err := sess.Update("/katta/counter", func(data []byte) ([]byte, error) {
		assert.Equal(t, "1", string(data))
		return []byte("2"), nil
	})
	require.Nil(t, err)

	var v int
	found, err := sess.Read("/katta/counter", &v)
	require.Nil(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, v)
}

func TestMemoryDeleteRecursive(t *testing.T) {
	store := zkclient.NewMemoryStore()
	sess := store.Session()
	defer sess.Close()
	require.Nil(t, sess.EnsurePath("/katta/indexes/articles"))
	require.Nil(t, sess.CreatePersistent("/katta/indexes/articles/shard0", nil))

	require.Nil(t, sess.DeleteRecursive("/katta/indexes"))
	exists, err := sess.Exists("/katta/indexes")
	require.Nil(t, err)
	assert.False(t, exists)
	exists, err = sess.Exists("/katta")
	require.Nil(t, err)
	assert.True(t, exists)
}

func TestMemoryReconnectRedelivers(t *testing.T) {
	store := zkclient.NewMemoryStore()
	sess := store.Session()
	defer sess.Close()
	require.Nil(t, sess.EnsurePath("/katta/nodes"))

	rec := &childRecorder{}
	sub, err := sess.SubscribeChildren("/katta/nodes", rec.listener)
	require.Nil(t, err)
	defer sub.Cancel()
	eventually(t, func() bool { return rec.count() >= 1 })

	var transitions []bool
	var mu sync.Mutex
	sess.SubscribeSession(func(connected bool) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, connected)
	})

	before := rec.count()
	sess.Disconnect()
	sess.Reconnect()
	eventually(t, func() bool { return rec.count() > before })
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false, true}, transitions)
}
