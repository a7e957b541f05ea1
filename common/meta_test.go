package common_test

import (
	"encoding/json"
	"testing"

	"github.com/kattaio/katta/common"
	"github.com/stretchr/testify/assert"
)

func TestMarshalIndexMetaData(t *testing.T) {
	ast := assert.New(t)
	meta := common.IndexMetaData{
		Name:             "articles",
		Path:             "/data/indexes/articles",
		Analyzer:         "standard",
		ReplicationLevel: 3,
		State:            common.IndexAnnounced,
	}
	b, err := json.Marshal(&meta)
	ast.Nil(err)
	var got common.IndexMetaData
	ast.Nil(json.Unmarshal(b, &got))
	ast.Equal(meta, got)
	// errorMessage must not leak into the record until set
	ast.NotContains(string(b), "errorMessage")
}

func TestNodeMetaDataAddress(t *testing.T) {
	ast := assert.New(t)
	meta := common.NodeMetaData{Name: "node1", Host: "10.0.0.7", Port: 20000}
	ast.Equal("10.0.0.7:20000", meta.Address())
}

func TestZkPathHelpers(t *testing.T) {
	ast := assert.New(t)
	ast.Equal("/katta/nodes/node1", common.ZkNodePath("node1"))
	ast.Equal("/katta/indexes/articles", common.ZkIndexPath("articles"))
	ast.Equal("/katta/indexes/articles/articles_0", common.ZkShardPath("articles", "articles_0"))
	ast.Equal("/katta/node-to-shard/node1/articles_0", common.ZkNodeShardPath("node1", "articles_0"))
	ast.Equal("/katta/shard-to-node/articles_0/node1", common.ZkShardNodePath("articles_0", "node1"))
}

func TestRemoveElements(t *testing.T) {
	ast := assert.New(t)
	got := common.RemoveElements([]string{"a", "b", "c"}, "b")
	ast.ElementsMatch([]string{"a", "c"}, got)
	ast.True(common.ContainsString(got, "a"))
	ast.False(common.ContainsString(got, "b"))
}
