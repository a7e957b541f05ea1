package node

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/kattaio/katta/common"
	"github.com/kattaio/katta/engine"
	pb "github.com/kattaio/katta/proto"
	"github.com/kattaio/katta/zkclient"
)

const (
	defaultDeployRetries = 3
	deployRetryBackoff   = time.Second
)

type Configuration struct {
	Name                string
	Host                string
	Port                int
	WorkDir             string
	TimeoutPct          float64
	DeployRetries       int
	ThrottleBytesPerSec int
	S3                  S3Config
}

func (c *Configuration) withDefaults() Configuration {
	out := *c
	if out.TimeoutPct <= 0 {
		out.TimeoutPct = defaultTimeoutPct
	}
	if out.DeployRetries <= 0 {
		out.DeployRetries = defaultDeployRetries
	}
	return out
}

// Node is one worker. It registers itself, watches its assignment
// queue, deploys shards through the fetch/open state machine and
// serves the search RPCs.
type Node struct {
	conf    Configuration
	store   zkclient.Store
	eng     engine.Engine
	shards  *shardManager
	fetcher *fetcher
	service *SearchService
	server  *grpc.Server
	healthy *atomic.Bool

	assignSub   *zkclient.Subscription
	deployingMu sync.Mutex
	deploying   map[string]struct{}
	stop        chan struct{}
	stopped     sync.Once
}

func New(conf Configuration, store zkclient.Store, eng engine.Engine) *Node {
	conf = conf.withDefaults()
	shards := newShardManager()
	return &Node{
		conf:       conf,
		store:      store,
		eng:        eng,
		shards:     shards,
		fetcher:    newFetcher(conf.WorkDir, conf.ThrottleBytesPerSec, conf.S3),
		service:    NewSearchService(conf.Name, shards, conf.TimeoutPct),
		healthy:   atomic.NewBool(false),
		deploying: map[string]struct{}{},
		stop:      make(chan struct{}),
	}
}

// Start brings the node up in the order the rest of the cluster
// depends on: serve RPCs first, then announce, then accept work, then
// report healthy.
func (n *Node) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", n.conf.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	n.conf.Port = lis.Addr().(*net.TCPAddr).Port
	n.server = common.NewGrpcServer()
	pb.RegisterKattaNodeServer(n.server, n.service)
	go func() {
		if err := n.server.Serve(lis); err != nil {
			common.Log().Warn("rpc server stopped", zap.Error(err))
		}
	}()

	for _, p := range []string{
		common.ZkNodesPath,
		common.ZkNodeShardsPath(n.conf.Name),
		common.ZkShardToNodePath,
	} {
		if err := n.store.EnsurePath(p); err != nil {
			return err
		}
	}
	if err := n.register(); err != nil {
		return err
	}
	n.store.SubscribeSession(n.onSession)

	sub, err := n.store.SubscribeChildren(common.ZkNodeShardsPath(n.conf.Name), n.onAssignments)
	if err != nil {
		return err
	}
	n.assignSub = sub

	n.healthy.Store(true)
	if err := n.writeMeta(); err != nil {
		return err
	}
	common.Log().Info("node started",
		zap.String("name", n.conf.Name), zap.Int("port", n.conf.Port))
	return nil
}

func (n *Node) meta() *common.NodeMetaData {
	return &common.NodeMetaData{
		Name:      n.conf.Name,
		Host:      n.conf.Host,
		Port:      n.conf.Port,
		StartTime: time.Now().UnixMilli(),
		Healthy:   n.healthy.Load(),
		Status:    "serving",
	}
}

func (n *Node) register() error {
	if err := n.store.CreateEphemeral(common.ZkNodePath(n.conf.Name), n.meta()); err != nil {
		return fmt.Errorf("register node %s: %w", n.conf.Name, err)
	}
	return nil
}

func (n *Node) writeMeta() error {
	return n.store.Write(common.ZkNodePath(n.conf.Name), n.meta())
}

// onSession re-announces the node after a session loss. The store
// never resurrects ephemerals on its own.
func (n *Node) onSession(connected bool) {
	if !connected {
		return
	}
	exists, err := n.store.Exists(common.ZkNodePath(n.conf.Name))
	if err != nil || exists {
		return
	}
	common.Log().Info("re-registering after session loss", zap.String("name", n.conf.Name))
	if err := n.register(); err != nil {
		common.Log().Error("re-registration failed", zap.Error(err))
		return
	}
	// republish shard replicas that lived on the lost session
	for _, shard := range n.shards.names() {
		n.publishState(shard, common.ShardOpen, "", n.shardSize(shard))
	}
}

func (n *Node) shardSize(shard string) int {
	handles, release, err := n.shards.pin([]string{shard})
	if err != nil {
		return 0
	}
	defer release()
	return handles[0].reader.NumDocs()
}

// onAssignments diffs the assignment queue against the open shards.
func (n *Node) onAssignments(_ string, assigned []string) {
	current := n.shards.names()
	for _, shard := range assigned {
		if !common.ContainsString(current, shard) {
			n.startDeploy(shard)
		}
	}
	for _, shard := range current {
		if !common.ContainsString(assigned, shard) {
			n.undeploy(shard)
		}
	}
}

// startDeploy launches one deploy per shard; repeat assignment events
// during a running deploy are ignored.
func (n *Node) startDeploy(shard string) {
	n.deployingMu.Lock()
	if _, busy := n.deploying[shard]; busy {
		n.deployingMu.Unlock()
		return
	}
	n.deploying[shard] = struct{}{}
	n.deployingMu.Unlock()
	go func() {
		defer func() {
			n.deployingMu.Lock()
			delete(n.deploying, shard)
			n.deployingMu.Unlock()
		}()
		n.deploy(shard)
	}()
}

func (n *Node) deploy(shard string) {
	var meta common.ShardMetaData
	found, err := n.store.Read(common.ZkNodeShardPath(n.conf.Name, shard), &meta)
	if err != nil || !found {
		common.Log().Error("cannot read assignment",
			zap.String("shard", shard), zap.Error(err))
		return
	}
	n.publishState(shard, common.ShardFetching, "", 0)

	retries := n.conf.DeployRetries
	backoff := deployRetryBackoff
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			select {
			case <-n.stop:
				return
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		lastErr = n.deployOnce(shard, meta.Path)
		if lastErr == nil {
			return
		}
		common.Log().Warn("shard deploy attempt failed",
			zap.String("shard", shard), zap.Int("attempt", attempt+1), zap.Error(lastErr))
	}
	// the error record stays in the store for inspection
	n.publishState(shard, common.ShardError, lastErr.Error(), 0)
}

func (n *Node) deployOnce(shard, source string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-n.stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	dir, err := n.fetcher.Fetch(ctx, shard, source)
	if err != nil {
		return err
	}
	reader, err := n.eng.OpenShard(shard, dir)
	if err != nil {
		return err
	}
	n.shards.add(shard, reader)
	n.publishState(shard, common.ShardOpen, "", reader.NumDocs())
	common.Log().Info("shard open",
		zap.String("shard", shard), zap.Int("docs", reader.NumDocs()))
	return nil
}

// publishState writes the deploy record under /shard-to-node as an
// ephemeral of this session so replicas vanish with the node.
func (n *Node) publishState(shard string, state common.DeployState, errMsg string, size int) {
	record := &common.DeployedShard{
		Node:         n.conf.Name,
		Shard:        shard,
		State:        state,
		ErrorMessage: errMsg,
		ShardSize:    size,
	}
	p := common.ZkShardNodePath(shard, n.conf.Name)
	if err := n.store.EnsurePath(common.ZkShardNodesPath(shard)); err != nil {
		common.Log().Error("publish state", zap.String("shard", shard), zap.Error(err))
		return
	}
	exists, err := n.store.Exists(p)
	if err == nil && !exists {
		err = n.store.CreateEphemeral(p, record)
	} else if err == nil {
		err = n.store.Write(p, record)
	}
	if err != nil {
		common.Log().Error("publish state", zap.String("shard", shard), zap.Error(err))
	}
}

func (n *Node) undeploy(shard string) {
	common.Log().Info("undeploying shard", zap.String("shard", shard))
	n.shards.remove(shard)
	if err := n.store.Delete(common.ZkShardNodePath(shard, n.conf.Name)); err != nil {
		common.Log().Warn("remove replica entry", zap.String("shard", shard), zap.Error(err))
	}
	if n.conf.WorkDir != "" {
		_ = os.RemoveAll(filepath.Join(n.conf.WorkDir, shard))
	}
}

// Stop shuts the node down in reverse start order.
func (n *Node) Stop() {
	n.stopped.Do(func() {
		close(n.stop)
		n.healthy.Store(false)
		if n.assignSub != nil {
			n.assignSub.Cancel()
		}
		if err := n.store.Delete(common.ZkNodePath(n.conf.Name)); err != nil {
			common.Log().Warn("remove node entry", zap.Error(err))
		}
		if n.server != nil {
			n.server.GracefulStop()
		}
		n.service.Close()
		n.shards.closeAll()
		n.store.Close()
		common.Log().Info("node stopped", zap.String("name", n.conf.Name))
	})
}
