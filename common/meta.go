// Metadata records stored as JSON inside znodes. These are part of the
// wire contract between masters, nodes and clients, so field names must
// stay stable.
package common

import (
	"fmt"
	"net"
)

type IndexState string

const (
	IndexAnnounced   IndexState = "ANNOUNCED"
	IndexDeploying   IndexState = "DEPLOYING"
	IndexDeployed    IndexState = "DEPLOYED"
	IndexDeployError IndexState = "DEPLOY_ERROR"
	IndexReplicating IndexState = "REPLICATING"
)

type IndexMetaData struct {
	Name             string     `json:"name"`
	Path             string     `json:"path"`
	Analyzer         string     `json:"analyzer"`
	ReplicationLevel int        `json:"replicationLevel"`
	State            IndexState `json:"state"`
	ErrorMessage     string     `json:"errorMessage,omitempty"`
}

// One shard of an index. The znode lives under the index znode; Path
// points at the shard content (file path or s3 URI) nodes fetch from.
type ShardMetaData struct {
	Name  string `json:"name"`
	Index string `json:"index"`
	Path  string `json:"path"`
}

type DeployState string

const (
	ShardAssigned DeployState = "ASSIGNED"
	ShardFetching DeployState = "FETCHING"
	ShardOpen     DeployState = "OPEN"
	ShardError    DeployState = "ERROR"
)

// Deploy progress record for one shard on one node. Written by the node
// under /shard-to-node (the /node-to-shard assignment holds the
// ShardMetaData written by the master); ShardSize is the document
// count, filled in once the shard is OPEN.
type DeployedShard struct {
	Node         string      `json:"node"`
	Shard        string      `json:"shard"`
	State        DeployState `json:"state"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	ShardSize    int         `json:"shardSize,omitempty"`
}

type NodeMetaData struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	StartTime int64  `json:"startTime"`
	Healthy   bool   `json:"healthy"`
	Status    string `json:"status"`
}

func (n *NodeMetaData) Address() string {
	return net.JoinHostPort(n.Host, fmt.Sprintf("%d", n.Port))
}

// Election token held by the active master under ZkMasterPath.
type MasterMetaData struct {
	Name      string `json:"name"`
	StartTime int64  `json:"startTime"`
}
