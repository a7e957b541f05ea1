// decl: znode layout shared by master, nodes and clients.
package common

import "path"

const (
	ZkRoot            = "/katta"
	ZkMasterPath      = ZkRoot + "/master"
	ZkNodesPath       = ZkRoot + "/nodes"
	ZkIndexesPath     = ZkRoot + "/indexes"
	ZkNodeToShardPath = ZkRoot + "/node-to-shard"
	ZkShardToNodePath = ZkRoot + "/shard-to-node"
)

func ZkNodePath(node string) string {
	return path.Join(ZkNodesPath, node)
}

func ZkIndexPath(index string) string {
	return path.Join(ZkIndexesPath, index)
}

func ZkShardPath(index, shard string) string {
	return path.Join(ZkIndexesPath, index, shard)
}

// Assignment znode for one shard on one node. Children of
// ZkNodeToShardPath/<node> are the node's work queue.
func ZkNodeShardPath(node, shard string) string {
	return path.Join(ZkNodeToShardPath, node, shard)
}

func ZkNodeShardsPath(node string) string {
	return path.Join(ZkNodeToShardPath, node)
}

// Reverse mapping: deploy records written by nodes, first as FETCHING
// and then as OPEN or ERROR. Clients watch these to build the shard map.
func ZkShardNodePath(shard, node string) string {
	return path.Join(ZkShardToNodePath, shard, node)
}

func ZkShardNodesPath(shard string) string {
	return path.Join(ZkShardToNodePath, shard)
}
