package client

import (
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kattaio/katta/common"
	"github.com/kattaio/katta/zkclient"
)

// shardMap is the coordinator's reactive view of the cluster: which
// indexes exist, which shards they have, which replicas are OPEN and
// where the nodes listen. Everything is rebuilt incrementally from
// store watches; readers only ever see the cached state.
type shardMap struct {
	store zkclient.Store

	mu       sync.Mutex
	indexes  map[string]common.IndexMetaData
	shards   map[string][]string                        // index -> shard names
	replicas map[string]map[string]common.DeployedShard // shard -> node -> record
	nodes    map[string]common.NodeMetaData

	indexDataSubs  map[string]*zkclient.Subscription
	indexChildSubs map[string]*zkclient.Subscription
	shardSubs      map[string]*zkclient.Subscription
	recordSubs     map[string]*zkclient.Subscription
	topSubs        []*zkclient.Subscription
}

func newShardMap(store zkclient.Store) *shardMap {
	return &shardMap{
		store:          store,
		indexes:        map[string]common.IndexMetaData{},
		shards:         map[string][]string{},
		replicas:       map[string]map[string]common.DeployedShard{},
		nodes:          map[string]common.NodeMetaData{},
		indexDataSubs:  map[string]*zkclient.Subscription{},
		indexChildSubs: map[string]*zkclient.Subscription{},
		shardSubs:      map[string]*zkclient.Subscription{},
		recordSubs:     map[string]*zkclient.Subscription{},
	}
}

// Start installs the watches and blocks until the initial snapshots of
// the three top-level trees have been applied.
func (s *shardMap) Start() error {
	for _, p := range []string{
		common.ZkNodesPath,
		common.ZkIndexesPath,
		common.ZkShardToNodePath,
	} {
		if err := s.store.EnsurePath(p); err != nil {
			return err
		}
	}

	type watch struct {
		path    string
		handler func(children []string)
	}
	watches := []watch{
		{common.ZkNodesPath, s.onNodes},
		{common.ZkIndexesPath, s.onIndexes},
		{common.ZkShardToNodePath, s.onShardDirs},
	}
	ready := make([]chan struct{}, len(watches))
	for i, w := range watches {
		i, w := i, w
		ready[i] = make(chan struct{})
		var once sync.Once
		sub, err := s.store.SubscribeChildren(w.path, func(_ string, children []string) {
			w.handler(children)
			once.Do(func() { close(ready[i]) })
		})
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.topSubs = append(s.topSubs, sub)
		s.mu.Unlock()
	}
	for _, ch := range ready {
		<-ch
	}
	return nil
}

func (s *shardMap) Stop() {
	s.mu.Lock()
	subs := s.topSubs
	s.topSubs = nil
	for _, m := range []map[string]*zkclient.Subscription{
		s.indexDataSubs, s.indexChildSubs, s.shardSubs, s.recordSubs,
	} {
		for k, sub := range m {
			subs = append(subs, sub)
			delete(m, k)
		}
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Cancel()
	}
}

func (s *shardMap) onNodes(names []string) {
	fresh := map[string]common.NodeMetaData{}
	for _, name := range names {
		var meta common.NodeMetaData
		if found, err := s.store.Read(common.ZkNodePath(name), &meta); err == nil && found {
			fresh[name] = meta
		}
	}
	s.mu.Lock()
	s.nodes = fresh
	s.mu.Unlock()
}

func (s *shardMap) onIndexes(names []string) {
	s.mu.Lock()
	var removed []string
	for name := range s.indexDataSubs {
		if !common.ContainsString(names, name) {
			removed = append(removed, name)
		}
	}
	var added []string
	for _, name := range names {
		if _, ok := s.indexDataSubs[name]; !ok {
			added = append(added, name)
		}
	}
	s.mu.Unlock()

	for _, name := range removed {
		s.mu.Lock()
		if sub, ok := s.indexDataSubs[name]; ok {
			sub.Cancel()
			delete(s.indexDataSubs, name)
		}
		if sub, ok := s.indexChildSubs[name]; ok {
			sub.Cancel()
			delete(s.indexChildSubs, name)
		}
		delete(s.indexes, name)
		delete(s.shards, name)
		s.mu.Unlock()
	}
	for _, name := range added {
		name := name
		dataSub, err := s.store.SubscribeData(common.ZkIndexPath(name), func(_ string, data []byte, exists bool) {
			s.onIndexData(name, data, exists)
		})
		if err != nil {
			common.Log().Error("watch index", zap.String("index", name), zap.Error(err))
			continue
		}
		childSub, err := s.store.SubscribeChildren(common.ZkIndexPath(name), func(_ string, shards []string) {
			s.mu.Lock()
			s.shards[name] = append([]string(nil), shards...)
			s.mu.Unlock()
		})
		if err != nil {
			dataSub.Cancel()
			common.Log().Error("watch index shards", zap.String("index", name), zap.Error(err))
			continue
		}
		s.mu.Lock()
		s.indexDataSubs[name] = dataSub
		s.indexChildSubs[name] = childSub
		s.mu.Unlock()
	}
}

func (s *shardMap) onIndexData(name string, data []byte, exists bool) {
	if !exists {
		s.mu.Lock()
		delete(s.indexes, name)
		s.mu.Unlock()
		return
	}
	var meta common.IndexMetaData
	if err := json.Unmarshal(data, &meta); err != nil {
		common.Log().Error("bad index record", zap.String("index", name), zap.Error(err))
		return
	}
	s.mu.Lock()
	s.indexes[name] = meta
	s.mu.Unlock()
}

func (s *shardMap) onShardDirs(shards []string) {
	s.mu.Lock()
	var removed []string
	for shard := range s.shardSubs {
		if !common.ContainsString(shards, shard) {
			removed = append(removed, shard)
		}
	}
	var added []string
	for _, shard := range shards {
		if _, ok := s.shardSubs[shard]; !ok {
			added = append(added, shard)
		}
	}
	s.mu.Unlock()

	for _, shard := range removed {
		s.mu.Lock()
		if sub, ok := s.shardSubs[shard]; ok {
			sub.Cancel()
			delete(s.shardSubs, shard)
		}
		delete(s.replicas, shard)
		s.mu.Unlock()
	}
	for _, shard := range added {
		shard := shard
		sub, err := s.store.SubscribeChildren(common.ZkShardNodesPath(shard), func(_ string, nodes []string) {
			s.onShardReplicas(shard, nodes)
		})
		if err != nil {
			common.Log().Error("watch shard replicas", zap.String("shard", shard), zap.Error(err))
			continue
		}
		s.mu.Lock()
		s.shardSubs[shard] = sub
		s.mu.Unlock()
	}
}

// onShardReplicas keeps one data watch per replica record; deploy state
// moves FETCHING to OPEN through a plain write, which only a data watch
// observes.
func (s *shardMap) onShardReplicas(shard string, nodes []string) {
	s.mu.Lock()
	current := s.replicas[shard]
	if current == nil {
		current = map[string]common.DeployedShard{}
		s.replicas[shard] = current
	}
	for node := range current {
		if !common.ContainsString(nodes, node) {
			delete(current, node)
			key := shard + "/" + node
			if sub, ok := s.recordSubs[key]; ok {
				sub.Cancel()
				delete(s.recordSubs, key)
			}
		}
	}
	var added []string
	for _, node := range nodes {
		if _, ok := s.recordSubs[shard+"/"+node]; !ok {
			added = append(added, node)
		}
	}
	s.mu.Unlock()

	for _, node := range added {
		node := node
		sub, err := s.store.SubscribeData(common.ZkShardNodePath(shard, node), func(_ string, data []byte, exists bool) {
			s.onReplicaRecord(shard, node, data, exists)
		})
		if err != nil {
			common.Log().Error("watch replica record",
				zap.String("shard", shard), zap.String("node", node), zap.Error(err))
			continue
		}
		s.mu.Lock()
		s.recordSubs[shard+"/"+node] = sub
		s.mu.Unlock()
	}
}

func (s *shardMap) onReplicaRecord(shard, node string, data []byte, exists bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.replicas[shard]
	if current == nil {
		return
	}
	if !exists {
		delete(current, node)
		return
	}
	var record common.DeployedShard
	if err := json.Unmarshal(data, &record); err != nil {
		common.Log().Error("bad replica record",
			zap.String("shard", shard), zap.String("node", node), zap.Error(err))
		return
	}
	current[node] = record
}

// DeployedIndexes returns the indexes currently serving queries.
func (s *shardMap) DeployedIndexes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for name, meta := range s.indexes {
		if meta.State == common.IndexDeployed || meta.State == common.IndexReplicating {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// IndexShards returns the shard names and replication level of one
// index, or ok=false when the index is unknown.
func (s *shardMap) IndexShards(index string) (shards []string, replication int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, known := s.indexes[index]
	if !known {
		return nil, 0, false
	}
	return append([]string(nil), s.shards[index]...), meta.ReplicationLevel, true
}

// OpenReplicas returns the nodes serving the shard with state OPEN,
// sorted for deterministic selection.
func (s *shardMap) OpenReplicas(shard string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for node, record := range s.replicas[shard] {
		if record.State == common.ShardOpen {
			out = append(out, node)
		}
	}
	sort.Strings(out)
	return out
}

// ShardReplication returns the replication level of the index owning
// the shard, defaulting to 1 for shards of unknown ancestry.
func (s *shardMap) ShardReplication(shard string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for index, shards := range s.shards {
		if common.ContainsString(shards, shard) {
			if meta, ok := s.indexes[index]; ok && meta.ReplicationLevel > 0 {
				return meta.ReplicationLevel
			}
			return 1
		}
	}
	return 1
}

func (s *shardMap) NodeAddress(node string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.nodes[node]
	if !ok {
		return "", false
	}
	return meta.Address(), true
}
