package zkclient_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kattaio/katta/zkclient"
)

var zkServers = []string{"localhost:2181"}

// requireZk skips store tests when no local ensemble is reachable so
// the suite stays green on machines without zookeeper.
func requireZk(t *testing.T) *zkclient.ZkClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", zkServers[0], 500*time.Millisecond)
	if err != nil {
		t.Skipf("no zookeeper at %s: %v", zkServers[0], err)
	}
	_ = conn.Close()
	c, err := zkclient.Connect(zkServers)
	require.Nil(t, err)
	require.Nil(t, c.EnsurePath("/katta-test"))
	return c
}

func tearDown(t *testing.T, c *zkclient.ZkClient) {
	assert.Nil(t, c.DeleteRecursive("/katta-test"))
	c.Close()
}

func TestZkWriteRead(t *testing.T) {
	c := requireZk(t)
	defer tearDown(t, c)

	dat := map[string]string{"a": "b", "c": "d"}
	require.Nil(t, c.Write("/katta-test/dat", dat))
	var ret map[string]string
	found, err := c.Read("/katta-test/dat", &ret)
	require.Nil(t, err)
	assert.True(t, found)
	assert.Equal(t, dat, ret)

	found, err = c.Read("/katta-test/missing", nil)
	require.Nil(t, err)
	assert.False(t, found)
}

func TestZkEnsurePathRecursive(t *testing.T) {
	c := requireZk(t)
	defer tearDown(t, c)

	require.Nil(t, c.EnsurePath("/katta-test/a/b/c/d"))
	exists, err := c.Exists("/katta-test/a/b/c/d")
	require.Nil(t, err)
	assert.True(t, exists)
}

func TestZkDeleteRecursive(t *testing.T) {
	c := requireZk(t)
	defer tearDown(t, c)

	require.Nil(t, c.EnsurePath("/katta-test/a/b/c"))
	require.Nil(t, c.CreatePersistent("/katta-test/a/b/c/leaf", "x"))
	require.Nil(t, c.DeleteRecursive("/katta-test/a"))
	exists, err := c.Exists("/katta-test/a")
	require.Nil(t, err)
	assert.False(t, exists)
}

func TestZkChildSubscription(t *testing.T) {
	c := requireZk(t)
	defer tearDown(t, c)

	require.Nil(t, c.EnsurePath("/katta-test/nodes"))
	rec := &childRecorder{}
	sub, err := c.SubscribeChildren("/katta-test/nodes", rec.listener)
	require.Nil(t, err)
	defer sub.Cancel()

	eventually(t, func() bool { return rec.count() >= 1 })
	require.Nil(t, c.CreatePersistent("/katta-test/nodes/n1", nil))
	eventually(t, func() bool {
		l := rec.last()
		return len(l) == 1 && l[0] == "n1"
	})
}

func TestZkUpdateConflictRetries(t *testing.T) {
	c := requireZk(t)
	defer tearDown(t, c)

	require.Nil(t, c.Write("/katta-test/counter", 0))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = c.Update("/katta-test/counter", func(data []byte) ([]byte, error) {
				return data, nil
			})
		}
	}()
	for i := 0; i < 50; i++ {
		require.Nil(t, c.Update("/katta-test/counter", func(data []byte) ([]byte, error) {
			return data, nil
		}))
	}
	<-done
}
