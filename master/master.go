// Package master runs the placement controller. Exactly one master is
// active at a time, elected through an ephemeral token znode; standbys
// watch the token and take over when it vanishes.
package master

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kattaio/katta/common"
	"github.com/kattaio/katta/zkclient"
)

type Configuration struct {
	Name string
}

type Master struct {
	conf   Configuration
	store  zkclient.Store
	policy PlacementPolicy

	mu        sync.Mutex
	leader    bool
	nodes     []string
	indexSubs map[string]*zkclient.Subscription
	shardSubs map[string]*zkclient.Subscription
	// shard -> owning index, rebuilt from store state on takeover
	shardIndex map[string]string
	subs       []*zkclient.Subscription

	stop    chan struct{}
	stopped sync.Once
}

func New(conf Configuration, store zkclient.Store) *Master {
	return &Master{
		conf:       conf,
		store:      store,
		policy:     LeastLoadedPolicy{},
		indexSubs:  map[string]*zkclient.Subscription{},
		shardSubs:  map[string]*zkclient.Subscription{},
		shardIndex: map[string]string{},
		stop:       make(chan struct{}),
	}
}

// Start joins the election and returns immediately; the caller decides
// how long the process lives.
func (m *Master) Start() error {
	for _, p := range []string{
		common.ZkNodesPath,
		common.ZkIndexesPath,
		common.ZkNodeToShardPath,
		common.ZkShardToNodePath,
	} {
		if err := m.store.EnsurePath(p); err != nil {
			return err
		}
	}
	m.store.SubscribeSession(m.onSession)
	go m.electLoop()
	return nil
}

func (m *Master) Stop() {
	m.stopped.Do(func() {
		close(m.stop)
		m.deactivate()
		m.store.Close()
	})
}

// IsLeader reports whether this master currently holds the token.
func (m *Master) IsLeader() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leader
}

// electLoop tries to grab the token, watching it between attempts.
// Whoever creates the ephemeral first wins; everyone else blocks until
// the token znode disappears and races again.
func (m *Master) electLoop() {
	for {
		select {
		case <-m.stop:
			return
		default:
		}
		token := &common.MasterMetaData{Name: m.conf.Name, StartTime: time.Now().UnixMilli()}
		if err := m.store.CreateEphemeral(common.ZkMasterPath, token); err == nil {
			common.Log().Info("became master", zap.String("name", m.conf.Name))
			m.activate()
			return
		}
		common.Log().Info("standing by for master token", zap.String("name", m.conf.Name))
		gone := make(chan struct{}, 1)
		sub, err := m.store.SubscribeData(common.ZkMasterPath, func(_ string, _ []byte, exists bool) {
			if !exists {
				select {
				case gone <- struct{}{}:
				default:
				}
			}
		})
		if err != nil {
			select {
			case <-m.stop:
				return
			case <-time.After(time.Second):
			}
			continue
		}
		select {
		case <-m.stop:
			sub.Cancel()
			return
		case <-gone:
			sub.Cancel()
		}
	}
}

// onSession only logs a disconnect; the master keeps its duties while
// the store is unreachable. On reconnect it checks the token: if this
// master still holds it nothing changes, otherwise (the token may have
// expired with the old session) it deactivates and rejoins the
// election.
func (m *Master) onSession(connected bool) {
	m.mu.Lock()
	wasLeader := m.leader
	m.mu.Unlock()
	if !connected {
		if wasLeader {
			common.Log().Warn("store disconnected while holding the master token")
		}
		return
	}
	if !wasLeader {
		return
	}
	var token common.MasterMetaData
	found, err := m.store.Read(common.ZkMasterPath, &token)
	if err == nil && found && token.Name == m.conf.Name {
		return
	}
	common.Log().Warn("lost master token, rejoining election")
	m.deactivate()
	go m.electLoop()
}

func (m *Master) activate() {
	m.mu.Lock()
	m.leader = true
	m.mu.Unlock()

	nodeSub, err := m.store.SubscribeChildren(common.ZkNodesPath, m.onNodes)
	if err != nil {
		common.Log().Error("subscribe nodes", zap.Error(err))
		return
	}
	indexSub, err := m.store.SubscribeChildren(common.ZkIndexesPath, m.onIndexes)
	if err != nil {
		nodeSub.Cancel()
		common.Log().Error("subscribe indexes", zap.Error(err))
		return
	}
	m.mu.Lock()
	m.subs = append(m.subs, nodeSub, indexSub)
	m.mu.Unlock()
}

func (m *Master) deactivate() {
	m.mu.Lock()
	m.leader = false
	subs := m.subs
	m.subs = nil
	for _, s := range m.indexSubs {
		subs = append(subs, s)
	}
	for _, s := range m.shardSubs {
		subs = append(subs, s)
	}
	m.indexSubs = map[string]*zkclient.Subscription{}
	m.shardSubs = map[string]*zkclient.Subscription{}
	m.shardIndex = map[string]string{}
	m.mu.Unlock()
	for _, s := range subs {
		s.Cancel()
	}
}

// onNodes reacts to workers joining and leaving.
func (m *Master) onNodes(_ string, nodes []string) {
	m.mu.Lock()
	if !m.leader {
		m.mu.Unlock()
		return
	}
	previous := m.nodes
	m.nodes = append([]string(nil), nodes...)
	m.mu.Unlock()

	for _, gone := range common.RemoveElements(previous, nodes...) {
		m.onNodeDown(gone)
	}
	added := common.RemoveElements(nodes, previous...)
	if len(added) > 0 {
		common.Log().Info("nodes joined", zap.Strings("nodes", added))
		m.rebalanceAll()
	}
}

// onIndexes tracks the index set. Each index gets a data subscription
// so state changes (announce, redeploy) drive the controller without
// polling.
func (m *Master) onIndexes(_ string, indexes []string) {
	m.mu.Lock()
	if !m.leader {
		m.mu.Unlock()
		return
	}
	var removed []string
	for name := range m.indexSubs {
		if !common.ContainsString(indexes, name) {
			removed = append(removed, name)
		}
	}
	var added []string
	for _, name := range indexes {
		if _, ok := m.indexSubs[name]; !ok {
			added = append(added, name)
		}
	}
	m.mu.Unlock()

	for _, name := range removed {
		m.dropIndex(name)
	}
	for _, name := range added {
		name := name
		sub, err := m.store.SubscribeData(common.ZkIndexPath(name), func(_ string, data []byte, exists bool) {
			if exists {
				m.onIndexData(name, data)
			}
		})
		if err != nil {
			common.Log().Error("subscribe index", zap.String("index", name), zap.Error(err))
			continue
		}
		m.mu.Lock()
		m.indexSubs[name] = sub
		m.mu.Unlock()
	}
}

func (m *Master) onIndexData(name string, data []byte) {
	var meta common.IndexMetaData
	if err := json.Unmarshal(data, &meta); err != nil {
		common.Log().Error("bad index record", zap.String("index", name), zap.Error(err))
		return
	}
	switch meta.State {
	case common.IndexAnnounced:
		m.deployIndex(&meta)
	case common.IndexDeploying, common.IndexDeployed, common.IndexReplicating:
		// takeover case: placement and watches must exist even when
		// the transition happened under a previous master
		m.ensureWatches(&meta)
		m.ensureReplication(&meta)
	}
}

// deployIndex drives ANNOUNCED -> DEPLOYING and distributes the
// shards. Completion is observed through the replica watches.
func (m *Master) deployIndex(meta *common.IndexMetaData) {
	common.Log().Info("deploying index",
		zap.String("index", meta.Name), zap.Int("replication", meta.ReplicationLevel))
	meta.State = common.IndexDeploying
	meta.ErrorMessage = ""
	if err := m.writeIndex(meta); err != nil {
		common.Log().Error("mark deploying", zap.String("index", meta.Name), zap.Error(err))
		return
	}
	m.ensureWatches(meta)
	m.ensureReplication(meta)
}

func (m *Master) indexShards(index string) ([]common.ShardMetaData, error) {
	names, err := m.store.Children(common.ZkIndexPath(index))
	if err != nil {
		return nil, err
	}
	shards := make([]common.ShardMetaData, 0, len(names))
	for _, name := range names {
		var sm common.ShardMetaData
		found, err := m.store.Read(common.ZkShardPath(index, name), &sm)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		shards = append(shards, sm)
	}
	return shards, nil
}

// ensureWatches installs a replica watch per shard of the index.
func (m *Master) ensureWatches(meta *common.IndexMetaData) {
	shards, err := m.indexShards(meta.Name)
	if err != nil {
		common.Log().Error("list shards", zap.String("index", meta.Name), zap.Error(err))
		return
	}
	for _, shard := range shards {
		m.mu.Lock()
		m.shardIndex[shard.Name] = meta.Name
		_, watched := m.shardSubs[shard.Name]
		m.mu.Unlock()
		if watched {
			continue
		}
		if err := m.store.EnsurePath(common.ZkShardNodesPath(shard.Name)); err != nil {
			common.Log().Error("ensure replica path", zap.String("shard", shard.Name), zap.Error(err))
			continue
		}
		index := meta.Name
		sub, err := m.store.SubscribeChildren(common.ZkShardNodesPath(shard.Name), func(_ string, _ []string) {
			m.recomputeIndexState(index)
		})
		if err != nil {
			common.Log().Error("watch replicas", zap.String("shard", shard.Name), zap.Error(err))
			continue
		}
		m.mu.Lock()
		m.shardSubs[shard.Name] = sub
		m.mu.Unlock()
	}
}

// assignmentTable reads the whole assignment tree: which node carries
// which shards, and the reverse.
func (m *Master) assignmentTable() (map[string][]string, map[string][]string, error) {
	nodeShards := map[string][]string{}
	shardNodes := map[string][]string{}
	nodes, err := m.store.Children(common.ZkNodeToShardPath)
	if err != nil {
		return nil, nil, err
	}
	for _, node := range nodes {
		shards, err := m.store.Children(common.ZkNodeShardsPath(node))
		if err != nil {
			return nil, nil, err
		}
		nodeShards[node] = shards
		for _, shard := range shards {
			shardNodes[shard] = append(shardNodes[shard], node)
		}
	}
	return nodeShards, shardNodes, nil
}

// ensureReplication assigns shards of the index until each one has
// min(replication, live nodes) assignments.
func (m *Master) ensureReplication(meta *common.IndexMetaData) {
	m.mu.Lock()
	live := append([]string(nil), m.nodes...)
	m.mu.Unlock()
	if len(live) == 0 {
		common.Log().Warn("no live nodes, index stays undeployed", zap.String("index", meta.Name))
		return
	}
	shards, err := m.indexShards(meta.Name)
	if err != nil {
		common.Log().Error("list shards", zap.String("index", meta.Name), zap.Error(err))
		return
	}
	nodeShards, shardNodes, err := m.assignmentTable()
	if err != nil {
		common.Log().Error("read assignments", zap.String("index", meta.Name), zap.Error(err))
		return
	}
	load := map[string]int{}
	for _, node := range live {
		load[node] = len(nodeShards[node])
	}

	want := meta.ReplicationLevel
	if want < 1 {
		want = 1
	}
	if want > len(live) {
		want = len(live)
	}
	for _, shard := range shards {
		current := 0
		var holders []string
		for _, node := range shardNodes[shard.Name] {
			if common.ContainsString(live, node) {
				current++
				holders = append(holders, node)
			}
		}
		if current >= want {
			continue
		}
		candidates := common.RemoveElements(live, holders...)
		chosen := m.policy.Choose(shard.Name, candidates, load, want-current)
		for _, node := range chosen {
			if err := m.assign(node, shard); err != nil {
				common.Log().Error("assign shard",
					zap.String("shard", shard.Name), zap.String("node", node), zap.Error(err))
				continue
			}
			load[node]++
			common.Log().Info("assigned shard",
				zap.String("shard", shard.Name), zap.String("node", node))
		}
	}
	m.recomputeIndexState(meta.Name)
}

func (m *Master) assign(node string, shard common.ShardMetaData) error {
	p := common.ZkNodeShardPath(node, shard.Name)
	exists, err := m.store.Exists(p)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := m.store.EnsurePath(common.ZkNodeShardsPath(node)); err != nil {
		return err
	}
	return m.store.CreatePersistent(p, &shard)
}

// recomputeIndexState derives the index state from replica records.
// Idempotent; writes happen only on actual change.
func (m *Master) recomputeIndexState(index string) {
	var meta common.IndexMetaData
	found, err := m.store.Read(common.ZkIndexPath(index), &meta)
	if err != nil || !found {
		return
	}
	if meta.State == common.IndexAnnounced {
		return
	}
	shards, err := m.indexShards(index)
	if err != nil || len(shards) == 0 {
		return
	}
	_, shardNodes, err := m.assignmentTable()
	if err != nil {
		return
	}
	m.mu.Lock()
	liveCount := len(m.nodes)
	m.mu.Unlock()
	want := meta.ReplicationLevel
	if want < 1 {
		want = 1
	}
	if want > liveCount && liveCount > 0 {
		want = liveCount
	}

	allFull, allServed := true, true
	var firstError string
	for _, shard := range shards {
		replicas, err := m.store.Children(common.ZkShardNodesPath(shard.Name))
		if err != nil {
			return
		}
		open, failed := 0, 0
		for _, node := range replicas {
			var rec common.DeployedShard
			found, err := m.store.Read(common.ZkShardNodePath(shard.Name, node), &rec)
			if err != nil || !found {
				continue
			}
			switch rec.State {
			case common.ShardOpen:
				open++
			case common.ShardError:
				failed++
				if firstError == "" {
					firstError = fmt.Sprintf("shard %s on node %s: %s", shard.Name, node, rec.ErrorMessage)
				}
			}
		}
		assigned := len(shardNodes[shard.Name])
		if open == 0 {
			allServed = false
			if assigned > 0 && failed >= assigned {
				// every assignment failed
				m.setIndexState(&meta, common.IndexDeployError, firstError)
				return
			}
			allFull = false
			continue
		}
		if open < want {
			allFull = false
		}
	}

	switch {
	case !allServed:
		m.setIndexState(&meta, common.IndexDeploying, "")
	case allFull:
		m.setIndexState(&meta, common.IndexDeployed, "")
	case meta.State == common.IndexDeployed || meta.State == common.IndexReplicating:
		m.setIndexState(&meta, common.IndexReplicating, "")
	default:
		// initial deploy reached every shard; replication catches up
		// in the background
		m.setIndexState(&meta, common.IndexDeployed, "")
	}
}

func (m *Master) setIndexState(meta *common.IndexMetaData, state common.IndexState, errMsg string) {
	if meta.State == state && meta.ErrorMessage == errMsg {
		return
	}
	meta.State = state
	meta.ErrorMessage = errMsg
	if err := m.writeIndex(meta); err != nil {
		common.Log().Error("write index state", zap.String("index", meta.Name), zap.Error(err))
		return
	}
	common.Log().Info("index state",
		zap.String("index", meta.Name), zap.String("state", string(state)))
}

func (m *Master) writeIndex(meta *common.IndexMetaData) error {
	return m.store.Write(common.ZkIndexPath(meta.Name), meta)
}

// onNodeDown removes the dead node's assignments and re-replicates the
// shards it carried.
func (m *Master) onNodeDown(node string) {
	common.Log().Warn("node lost", zap.String("node", node))
	shards, err := m.store.Children(common.ZkNodeShardsPath(node))
	if err != nil {
		common.Log().Error("read lost node assignments", zap.String("node", node), zap.Error(err))
		return
	}
	affected := map[string]struct{}{}
	for _, shard := range shards {
		var sm common.ShardMetaData
		if found, err := m.store.Read(common.ZkNodeShardPath(node, shard), &sm); err == nil && found {
			affected[sm.Index] = struct{}{}
		}
		if err := m.store.Delete(common.ZkNodeShardPath(node, shard)); err != nil {
			common.Log().Error("remove assignment",
				zap.String("node", node), zap.String("shard", shard), zap.Error(err))
		}
	}
	_ = m.store.Delete(common.ZkNodeShardsPath(node))
	for index := range affected {
		var meta common.IndexMetaData
		if found, err := m.store.Read(common.ZkIndexPath(index), &meta); err == nil && found {
			m.ensureReplication(&meta)
		}
	}
}

// rebalanceAll revisits replication for every index, typically after
// nodes joined.
func (m *Master) rebalanceAll() {
	indexes, err := m.store.Children(common.ZkIndexesPath)
	if err != nil {
		common.Log().Error("list indexes", zap.Error(err))
		return
	}
	for _, index := range indexes {
		var meta common.IndexMetaData
		found, err := m.store.Read(common.ZkIndexPath(index), &meta)
		if err != nil || !found {
			continue
		}
		if meta.State == common.IndexAnnounced {
			continue
		}
		m.ensureReplication(&meta)
	}
}

// dropIndex tears an index out of the assignment tree after its znode
// was removed.
func (m *Master) dropIndex(index string) {
	common.Log().Info("removing index", zap.String("index", index))
	m.mu.Lock()
	if sub, ok := m.indexSubs[index]; ok {
		sub.Cancel()
		delete(m.indexSubs, index)
	}
	var shards []string
	for shard, owner := range m.shardIndex {
		if owner == index {
			shards = append(shards, shard)
		}
	}
	for _, shard := range shards {
		if sub, ok := m.shardSubs[shard]; ok {
			sub.Cancel()
			delete(m.shardSubs, shard)
		}
		delete(m.shardIndex, shard)
	}
	m.mu.Unlock()

	nodeShards, _, err := m.assignmentTable()
	if err != nil {
		common.Log().Error("read assignments", zap.Error(err))
		return
	}
	for node, assigned := range nodeShards {
		for _, shard := range assigned {
			var sm common.ShardMetaData
			found, err := m.store.Read(common.ZkNodeShardPath(node, shard), &sm)
			if err != nil || !found || sm.Index != index {
				continue
			}
			if err := m.store.Delete(common.ZkNodeShardPath(node, shard)); err != nil {
				common.Log().Error("remove assignment",
					zap.String("node", node), zap.String("shard", shard), zap.Error(err))
			}
		}
	}
	for _, shard := range shards {
		_ = m.store.DeleteRecursive(common.ZkShardNodesPath(shard))
	}
}
