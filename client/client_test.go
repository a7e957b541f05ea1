package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kattaio/katta/client"
	"github.com/kattaio/katta/common"
	"github.com/kattaio/katta/engine"
	"github.com/kattaio/katta/engine/memindex"
	"github.com/kattaio/katta/master"
	"github.com/kattaio/katta/node"
	"github.com/kattaio/katta/zkclient"
)

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func writeShardSource(t *testing.T, docs []map[string]interface{}) string {
	t.Helper()
	dir := t.TempDir()
	raw, err := json.Marshal(docs)
	require.Nil(t, err)
	require.Nil(t, os.WriteFile(filepath.Join(dir, memindex.DocsFileName), raw, 0o644))
	return dir
}

func startNode(t *testing.T, store *zkclient.MemoryStore, name string) *node.Node {
	t.Helper()
	n := node.New(node.Configuration{
		Name:          name,
		Host:          "localhost",
		Port:          0,
		WorkDir:       t.TempDir(),
		DeployRetries: 1,
	}, store.Session(), memindex.New())
	require.Nil(t, n.Start())
	t.Cleanup(n.Stop)
	return n
}

func deployIndex(t *testing.T, store *zkclient.MemoryStore, name string, replication int, shardDocs map[string][]map[string]interface{}) {
	t.Helper()
	session := store.Session()
	defer session.Close()
	require.Nil(t, session.EnsurePath(common.ZkIndexesPath))
	meta := &common.IndexMetaData{Name: name, ReplicationLevel: replication}
	require.Nil(t, session.CreatePersistent(common.ZkIndexPath(name), meta))
	for shard, docs := range shardDocs {
		require.Nil(t, session.CreatePersistent(common.ZkShardPath(name, shard),
			&common.ShardMetaData{Name: shard, Index: name, Path: writeShardSource(t, docs)}))
	}
	meta.State = common.IndexAnnounced
	require.Nil(t, session.Write(common.ZkIndexPath(name), meta))

	eventually(t, func() bool {
		var current common.IndexMetaData
		found, err := session.Read(common.ZkIndexPath(name), &current)
		return err == nil && found && current.State == common.IndexDeployed
	})
}

// startCluster brings up a master, two nodes and one deployed
// two-shard index with every shard on both nodes.
func startCluster(t *testing.T) (*zkclient.MemoryStore, *client.Client) {
	t.Helper()
	store := zkclient.NewMemoryStore()
	m := master.New(master.Configuration{Name: "m1"}, store.Session())
	require.Nil(t, m.Start())
	t.Cleanup(m.Stop)
	startNode(t, store, "node1")
	startNode(t, store, "node2")

	deployIndex(t, store, "idx", 2, map[string][]map[string]interface{}{
		"idx_0": {
			{"content": "alpha beta", "id": "a"},
			{"content": "alpha alpha", "id": "b"},
		},
		"idx_1": {
			{"content": "alpha gamma", "id": "c"},
			{"content": "delta", "id": "d"},
		},
	})

	c, err := client.New(client.Configuration{}, store.Session())
	require.Nil(t, err)
	t.Cleanup(c.Close)
	return store, c
}

func TestSearchAcrossNodes(t *testing.T) {
	_, c := startCluster(t)
	result, err := c.Search(context.Background(), []string{"idx"}, []byte("alpha"), nil, 10, nil)
	require.Nil(t, err)
	assert.EqualValues(t, 3, result.TotalHits)
	require.Len(t, result.Hits, 3)
	// the doc with two alpha occurrences ranks first
	assert.Equal(t, "idx_0", result.Hits[0].Shard)
	assert.EqualValues(t, 1, result.Hits[0].DocID)
	for i := 1; i < len(result.Hits); i++ {
		assert.True(t, result.Hits[i-1].Score >= result.Hits[i].Score)
	}
}

func TestSearchHonoursLimit(t *testing.T) {
	_, c := startCluster(t)
	result, err := c.Search(context.Background(), []string{"idx"}, []byte("alpha"), nil, 1, nil)
	require.Nil(t, err)
	assert.EqualValues(t, 3, result.TotalHits)
	assert.Len(t, result.Hits, 1)
}

func TestCount(t *testing.T) {
	_, c := startCluster(t)
	count, err := c.Count(context.Background(), []string{"idx"}, []byte("alpha"))
	require.Nil(t, err)
	assert.EqualValues(t, 3, count)
}

func TestWildcardResolvesDeployedIndexes(t *testing.T) {
	_, c := startCluster(t)
	assert.Equal(t, []string{"idx"}, c.DeployedIndexes())
	count, err := c.Count(context.Background(), []string{"*"}, []byte("alpha"))
	require.Nil(t, err)
	assert.EqualValues(t, 3, count)
}

func TestUnknownIndexFails(t *testing.T) {
	_, c := startCluster(t)
	_, err := c.Search(context.Background(), []string{"nope"}, []byte("alpha"), nil, 10, nil)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestMalformedQuerySurfaces(t *testing.T) {
	_, c := startCluster(t)
	_, err := c.Search(context.Background(), []string{"idx"}, []byte("   "), nil, 10, nil)
	assert.True(t, errors.Is(err, common.ErrMalformedQuery))
}

func TestGetDetailsKeepsHitOrder(t *testing.T) {
	_, c := startCluster(t)
	result, err := c.Search(context.Background(), []string{"idx"}, []byte("alpha"), nil, 10, nil)
	require.Nil(t, err)
	require.Len(t, result.Hits, 3)

	docs, err := c.GetDetails(context.Background(), result.Hits, []string{"id"})
	require.Nil(t, err)
	require.Len(t, docs, 3)
	for i, doc := range docs {
		assert.Equal(t, result.Hits[i].Shard, doc.Shard)
		assert.Equal(t, result.Hits[i].DocID, doc.DocID)
		require.Len(t, doc.Fields, 1)
		assert.Equal(t, "id", doc.Fields[0].Name)
	}
	// highest ranked hit is doc b
	assert.Equal(t, "b", string(docs[0].Fields[0].Value))
}

func TestSortedSearchMergesGlobally(t *testing.T) {
	store := zkclient.NewMemoryStore()
	m := master.New(master.Configuration{Name: "m1"}, store.Session())
	require.Nil(t, m.Start())
	t.Cleanup(m.Stop)
	startNode(t, store, "node1")
	startNode(t, store, "node2")
	deployIndex(t, store, "years", 2, map[string][]map[string]interface{}{
		"years_0": {
			{"content": "x", "year": float64(2015)},
			{"content": "x", "year": float64(1999)},
		},
		"years_1": {
			{"content": "x", "year": float64(2003)},
		},
	})
	c, err := client.New(client.Configuration{}, store.Session())
	require.Nil(t, err)
	t.Cleanup(c.Close)

	result, err := c.Search(context.Background(), []string{"years"}, []byte("x"), nil, 10,
		[]engine.SortField{{Field: "year"}})
	require.Nil(t, err)
	require.Len(t, result.Hits, 3)
	var years []int64
	for _, h := range result.Hits {
		years = append(years, engine.DecodeSortInt64(h.SortValues[0]))
	}
	assert.Equal(t, []int64{1999, 2003, 2015}, years)
}

func TestFilteredSearch(t *testing.T) {
	store := zkclient.NewMemoryStore()
	m := master.New(master.Configuration{Name: "m1"}, store.Session())
	require.Nil(t, m.Start())
	t.Cleanup(m.Stop)
	startNode(t, store, "node1")
	deployIndex(t, store, "typed", 1, map[string][]map[string]interface{}{
		"typed_0": {
			{"content": "alpha", "type": "article"},
			{"content": "alpha", "type": "blog"},
		},
	})
	c, err := client.New(client.Configuration{}, store.Session())
	require.Nil(t, err)
	t.Cleanup(c.Close)

	result, err := c.Search(context.Background(), []string{"typed"}, []byte("alpha"),
		[]byte("type:article"), 10, nil)
	require.Nil(t, err)
	assert.EqualValues(t, 1, result.TotalHits)
}

func TestNodeLossStillServesReplicatedIndex(t *testing.T) {
	store := zkclient.NewMemoryStore()
	m := master.New(master.Configuration{Name: "m1"}, store.Session())
	require.Nil(t, m.Start())
	t.Cleanup(m.Stop)
	n1 := startNode(t, store, "node1")
	startNode(t, store, "node2")
	deployIndex(t, store, "idx", 2, map[string][]map[string]interface{}{
		"idx_0": {{"content": "alpha"}},
	})
	c, err := client.New(client.Configuration{}, store.Session())
	require.Nil(t, err)
	t.Cleanup(c.Close)

	n1.Stop()
	eventually(t, func() bool {
		count, err := c.Count(context.Background(), []string{"idx"}, []byte("alpha"))
		return err == nil && count == 1
	})
}

func TestAllReplicasGoneFailsNamingShard(t *testing.T) {
	store := zkclient.NewMemoryStore()
	m := master.New(master.Configuration{Name: "m1"}, store.Session())
	require.Nil(t, m.Start())
	t.Cleanup(m.Stop)
	n1 := startNode(t, store, "node1")
	deployIndex(t, store, "idx", 1, map[string][]map[string]interface{}{
		"idx_0": {{"content": "alpha"}},
	})
	c, err := client.New(client.Configuration{}, store.Session())
	require.Nil(t, err)
	t.Cleanup(c.Close)

	n1.Stop()
	eventually(t, func() bool {
		_, err := c.Search(context.Background(), []string{"idx"}, []byte("alpha"), nil, 10, nil)
		return errors.Is(err, common.ErrShardUnavailable) && strings.Contains(err.Error(), "idx_0")
	})
}
