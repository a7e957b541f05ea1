package master_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kattaio/katta/common"
	"github.com/kattaio/katta/master"
	"github.com/kattaio/katta/zkclient"
)

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func startMaster(t *testing.T, store *zkclient.MemoryStore, name string) (*master.Master, *zkclient.MemorySession) {
	t.Helper()
	session := store.Session()
	m := master.New(master.Configuration{Name: name}, session)
	require.Nil(t, m.Start())
	t.Cleanup(m.Stop)
	return m, session
}

// registerNode stands in for a worker process: the ephemeral under
// /katta/nodes is all the master looks at.
func registerNode(t *testing.T, store *zkclient.MemoryStore, name string) *zkclient.MemorySession {
	t.Helper()
	session := store.Session()
	require.Nil(t, session.EnsurePath(common.ZkNodesPath))
	require.Nil(t, session.CreateEphemeral(common.ZkNodePath(name),
		&common.NodeMetaData{Name: name, Host: "localhost", Port: 20000, Healthy: true}))
	t.Cleanup(session.Close)
	return session
}

// announceIndex creates the index znode with its shard children and
// flips the state to ANNOUNCED last, the way the CLI does it.
func announceIndex(t *testing.T, store *zkclient.MemoryStore, name string, shards, replication int) {
	t.Helper()
	session := store.Session()
	defer session.Close()
	require.Nil(t, session.EnsurePath(common.ZkIndexesPath))
	meta := &common.IndexMetaData{Name: name, Path: "/data/" + name, ReplicationLevel: replication}
	require.Nil(t, session.CreatePersistent(common.ZkIndexPath(name), meta))
	for i := 0; i < shards; i++ {
		shard := fmt.Sprintf("%s_%d", name, i)
		require.Nil(t, session.CreatePersistent(common.ZkShardPath(name, shard),
			&common.ShardMetaData{Name: shard, Index: name, Path: "/data/" + shard}))
	}
	meta.State = common.IndexAnnounced
	require.Nil(t, session.Write(common.ZkIndexPath(name), meta))
}

func reportShard(t *testing.T, session *zkclient.MemorySession, shard, node string, state common.DeployState, errMsg string) {
	t.Helper()
	require.Nil(t, session.EnsurePath(common.ZkShardNodesPath(shard)))
	rec := &common.DeployedShard{Node: node, Shard: shard, State: state, ErrorMessage: errMsg}
	if state == common.ShardOpen {
		rec.ShardSize = 10
	}
	require.Nil(t, session.CreateEphemeral(common.ZkShardNodePath(shard, node), rec))
}

func indexState(t *testing.T, store *zkclient.MemoryStore, name string) common.IndexMetaData {
	t.Helper()
	session := store.Session()
	defer session.Close()
	var meta common.IndexMetaData
	found, err := session.Read(common.ZkIndexPath(name), &meta)
	require.Nil(t, err)
	require.True(t, found)
	return meta
}

func TestElectionSingleLeader(t *testing.T) {
	store := zkclient.NewMemoryStore()
	m1, _ := startMaster(t, store, "m1")
	eventually(t, func() bool { return m1.IsLeader() })

	m2, _ := startMaster(t, store, "m2")
	time.Sleep(100 * time.Millisecond)
	assert.False(t, m2.IsLeader())

	observer := store.Session()
	defer observer.Close()
	var token common.MasterMetaData
	found, err := observer.Read(common.ZkMasterPath, &token)
	require.Nil(t, err)
	require.True(t, found)
	assert.Equal(t, "m1", token.Name)
}

func TestStandbyTakesOver(t *testing.T) {
	store := zkclient.NewMemoryStore()
	m1, session1 := startMaster(t, store, "m1")
	eventually(t, func() bool { return m1.IsLeader() })
	m2, _ := startMaster(t, store, "m2")

	session1.Expire()
	eventually(t, func() bool { return m2.IsLeader() })

	observer := store.Session()
	defer observer.Close()
	var token common.MasterMetaData
	found, err := observer.Read(common.ZkMasterPath, &token)
	require.Nil(t, err)
	require.True(t, found)
	assert.Equal(t, "m2", token.Name)
}

func TestDeployAssignsShardsAndTracksState(t *testing.T) {
	store := zkclient.NewMemoryStore()
	m, _ := startMaster(t, store, "m1")
	eventually(t, func() bool { return m.IsLeader() })
	nodeSession := registerNode(t, store, "node1")

	announceIndex(t, store, "idx", 2, 1)

	observer := store.Session()
	defer observer.Close()
	eventually(t, func() bool {
		ok0, _ := observer.Exists(common.ZkNodeShardPath("node1", "idx_0"))
		ok1, _ := observer.Exists(common.ZkNodeShardPath("node1", "idx_1"))
		return ok0 && ok1
	})
	assert.Equal(t, common.IndexDeploying, indexState(t, store, "idx").State)

	var assigned common.ShardMetaData
	found, err := observer.Read(common.ZkNodeShardPath("node1", "idx_0"), &assigned)
	require.Nil(t, err)
	require.True(t, found)
	assert.Equal(t, "idx", assigned.Index)
	assert.Equal(t, "/data/idx_0", assigned.Path)

	reportShard(t, nodeSession, "idx_0", "node1", common.ShardOpen, "")
	reportShard(t, nodeSession, "idx_1", "node1", common.ShardOpen, "")
	eventually(t, func() bool {
		return indexState(t, store, "idx").State == common.IndexDeployed
	})
}

func TestDeployErrorWhenAllReplicasFail(t *testing.T) {
	store := zkclient.NewMemoryStore()
	m, _ := startMaster(t, store, "m1")
	eventually(t, func() bool { return m.IsLeader() })
	nodeSession := registerNode(t, store, "node1")

	announceIndex(t, store, "bad", 1, 1)
	observer := store.Session()
	defer observer.Close()
	eventually(t, func() bool {
		ok, _ := observer.Exists(common.ZkNodeShardPath("node1", "bad_0"))
		return ok
	})

	reportShard(t, nodeSession, "bad_0", "node1", common.ShardError, "corrupt shard")
	eventually(t, func() bool {
		return indexState(t, store, "bad").State == common.IndexDeployError
	})
	assert.Contains(t, indexState(t, store, "bad").ErrorMessage, "corrupt shard")
}

func TestReplicationSpreadsAcrossNodes(t *testing.T) {
	store := zkclient.NewMemoryStore()
	m, _ := startMaster(t, store, "m1")
	eventually(t, func() bool { return m.IsLeader() })
	registerNode(t, store, "node1")
	registerNode(t, store, "node2")

	announceIndex(t, store, "idx", 1, 2)
	observer := store.Session()
	defer observer.Close()
	eventually(t, func() bool {
		ok1, _ := observer.Exists(common.ZkNodeShardPath("node1", "idx_0"))
		ok2, _ := observer.Exists(common.ZkNodeShardPath("node2", "idx_0"))
		return ok1 && ok2
	})
}

func TestReplicationClampedToLiveNodes(t *testing.T) {
	store := zkclient.NewMemoryStore()
	m, _ := startMaster(t, store, "m1")
	eventually(t, func() bool { return m.IsLeader() })
	nodeSession := registerNode(t, store, "node1")

	announceIndex(t, store, "idx", 1, 3)
	observer := store.Session()
	defer observer.Close()
	eventually(t, func() bool {
		ok, _ := observer.Exists(common.ZkNodeShardPath("node1", "idx_0"))
		return ok
	})

	// one live node can only hold one replica, which still counts as
	// fully deployed
	reportShard(t, nodeSession, "idx_0", "node1", common.ShardOpen, "")
	eventually(t, func() bool {
		return indexState(t, store, "idx").State == common.IndexDeployed
	})
}

func TestNodeDownMovesAssignments(t *testing.T) {
	store := zkclient.NewMemoryStore()
	m, _ := startMaster(t, store, "m1")
	eventually(t, func() bool { return m.IsLeader() })
	session1 := registerNode(t, store, "node1")
	registerNode(t, store, "node2")

	announceIndex(t, store, "idx", 1, 1)
	observer := store.Session()
	defer observer.Close()
	// equal load ties break by name, so node1 gets the shard
	eventually(t, func() bool {
		ok, _ := observer.Exists(common.ZkNodeShardPath("node1", "idx_0"))
		return ok
	})

	session1.Expire()
	eventually(t, func() bool {
		ok, _ := observer.Exists(common.ZkNodeShardPath("node2", "idx_0"))
		return ok
	})
	gone, _ := observer.Exists(common.ZkNodeShardPath("node1", "idx_0"))
	assert.False(t, gone)
}

func TestRemovedIndexDropsAssignments(t *testing.T) {
	store := zkclient.NewMemoryStore()
	m, _ := startMaster(t, store, "m1")
	eventually(t, func() bool { return m.IsLeader() })
	registerNode(t, store, "node1")

	announceIndex(t, store, "idx", 1, 1)
	observer := store.Session()
	defer observer.Close()
	eventually(t, func() bool {
		ok, _ := observer.Exists(common.ZkNodeShardPath("node1", "idx_0"))
		return ok
	})

	require.Nil(t, observer.DeleteRecursive(common.ZkIndexPath("idx")))
	eventually(t, func() bool {
		ok, _ := observer.Exists(common.ZkNodeShardPath("node1", "idx_0"))
		return !ok
	})
}

func TestLeastLoadedPolicy(t *testing.T) {
	policy := master.LeastLoadedPolicy{}
	load := map[string]int{"a": 3, "b": 0, "c": 1}
	chosen := policy.Choose("s0", []string{"a", "b", "c"}, load, 2)
	assert.Equal(t, []string{"b", "c"}, chosen)

	// load ties break by name
	chosen = policy.Choose("s0", []string{"z", "y"}, map[string]int{}, 2)
	assert.Equal(t, []string{"y", "z"}, chosen)

	assert.Nil(t, policy.Choose("s0", nil, load, 1))
	assert.Len(t, policy.Choose("s0", []string{"a"}, load, 5), 1)
}
