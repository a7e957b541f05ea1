// Package client implements the query coordinator: it keeps a reactive
// view of OPEN shard replicas, scatters two-phase search requests over
// the nodes and gathers the per-shard top-K lists into one result.
package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/kattaio/katta/common"
	"github.com/kattaio/katta/engine"
	pb "github.com/kattaio/katta/proto"
	"github.com/kattaio/katta/zkclient"
)

const (
	defaultRequestTimeout = 10 * time.Second
	// margin subtracted from the caller deadline before it is handed
	// to the nodes, so replies still make it back over the wire
	rpcOverheadMargin = 100 * time.Millisecond
)

type Configuration struct {
	UnreachableWindow time.Duration
	RequestTimeout    time.Duration
}

func (c *Configuration) withDefaults() Configuration {
	out := *c
	if out.RequestTimeout <= 0 {
		out.RequestTimeout = defaultRequestTimeout
	}
	return out
}

type Hit struct {
	Node       string
	Shard      string
	Score      float32
	DocID      int32
	SortValues [][]byte
}

type Hits struct {
	TotalHits int64
	Hits      []Hit
}

type Document struct {
	Node   string
	Shard  string
	DocID  int32
	Fields []engine.FieldValue
}

type Client struct {
	conf     Configuration
	store    zkclient.Store
	shardMap *shardMap
	selector *nodeSelector

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

// New connects the coordinator to the cluster. It blocks until the
// initial shard map snapshot has loaded.
func New(conf Configuration, store zkclient.Store) (*Client, error) {
	conf = conf.withDefaults()
	c := &Client{
		conf:     conf,
		store:    store,
		shardMap: newShardMap(store),
		selector: newNodeSelector(conf.UnreachableWindow),
		conns:    map[string]*grpc.ClientConn{},
	}
	if err := c.shardMap.Start(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) Close() {
	c.shardMap.Stop()
	c.mu.Lock()
	conns := c.conns
	c.conns = map[string]*grpc.ClientConn{}
	c.mu.Unlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
	c.store.Close()
}

// DeployedIndexes lists the indexes the coordinator would resolve the
// wildcard to.
func (c *Client) DeployedIndexes() []string {
	return c.shardMap.DeployedIndexes()
}

// resolve expands index names (or the * wildcard) into the covering
// shard set plus the per-shard failover budget of replication-1
// attempts.
func (c *Client) resolve(indexes []string) ([]string, map[string]int, error) {
	var names []string
	for _, name := range indexes {
		if name == "*" {
			names = append(names, c.shardMap.DeployedIndexes()...)
		} else {
			names = append(names, name)
		}
	}
	var shards []string
	budget := map[string]int{}
	for _, index := range names {
		shardNames, replication, ok := c.shardMap.IndexShards(index)
		if !ok {
			return nil, nil, fmt.Errorf("index %s not found", index)
		}
		retries := replication - 1
		if retries < 0 {
			retries = 0
		}
		for _, shard := range shardNames {
			if _, seen := budget[shard]; !seen {
				shards = append(shards, shard)
				budget[shard] = retries
			}
		}
	}
	sort.Strings(shards)
	return shards, budget, nil
}

func (c *Client) nodeClient(ctx context.Context, node string) (pb.KattaNodeClient, error) {
	address, ok := c.shardMap.NodeAddress(node)
	if !ok {
		return nil, fmt.Errorf("node %s has no address", node)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.conns[address]
	if !ok {
		var err error
		conn, err = common.DialNode(ctx, address)
		if err != nil {
			return nil, err
		}
		c.conns[address] = conn
	}
	return pb.NewKattaNodeClient(conn), nil
}

type nodeCall func(ctx context.Context, cl pb.KattaNodeClient, node string, shards []string) error

// scatter fans one call out to one replica per shard, grouped by node.
// A failed node is flagged unreachable and its shards move to the next
// replica until each shard's failover budget runs out. Malformed
// queries abort immediately; they would fail everywhere.
func (c *Client) scatter(ctx context.Context, shards []string, budget map[string]int, preferred map[string]string, call nodeCall) error {
	failed := map[string]map[string]bool{}
	pending := shards
	for len(pending) > 0 {
		groups := map[string][]string{}
		for _, shard := range pending {
			replicas := c.shardMap.OpenReplicas(shard)
			var node string
			var ok bool
			if p := preferred[shard]; p != "" && !failed[shard][p] && common.ContainsString(replicas, p) {
				node, ok = p, true
			} else {
				node, ok = c.selector.pick(shard, replicas, failed[shard])
			}
			if !ok {
				return fmt.Errorf("shard %s has no live replica: %w", shard, common.ErrShardUnavailable)
			}
			groups[node] = append(groups[node], shard)
		}

		var mu sync.Mutex
		var retry []string
		g, gctx := errgroup.WithContext(ctx)
		for node, ns := range groups {
			node, ns := node, ns
			g.Go(func() error {
				cl, err := c.nodeClient(gctx, node)
				if err == nil {
					err = common.FromRPCError(call(gctx, cl, node, ns))
				}
				if err == nil {
					return nil
				}
				if errors.Is(err, common.ErrMalformedQuery) {
					return err
				}
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.selector.markUnreachable(node)
				common.Log().Warn("node call failed, failing over",
					zap.String("node", node), zap.Error(err))
				mu.Lock()
				defer mu.Unlock()
				for _, shard := range ns {
					if budget[shard] <= 0 {
						return fmt.Errorf("shard %s failed on all replicas: %w",
							shard, common.ErrShardUnavailable)
					}
					budget[shard]--
					if failed[shard] == nil {
						failed[shard] = map[string]bool{}
					}
					failed[shard][node] = true
					retry = append(retry, shard)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		pending = retry
	}
	return nil
}

// searchContext applies the default timeout when the caller supplied no
// deadline and converts the remaining time into the node-side budget.
func (c *Client) searchContext(ctx context.Context) (context.Context, context.CancelFunc, int64) {
	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, c.conf.RequestTimeout)
	}
	deadline, _ := ctx.Deadline()
	budget := time.Until(deadline) - rpcOverheadMargin
	if budget < time.Millisecond {
		budget = time.Millisecond
	}
	return ctx, cancel, budget.Milliseconds()
}

// globalFreqs is phase one: document frequencies summed over every
// shard so phase two scores with uniform IDF.
func (c *Client) globalFreqs(ctx context.Context, query []byte, shards []string, budget map[string]int) (*pb.DocFrequencies, error) {
	var mu sync.Mutex
	freqs := map[engine.Term]int64{}
	var numDocs int64
	err := c.scatter(ctx, shards, budget, nil, func(ctx context.Context, cl pb.KattaNodeClient, _ string, ns []string) error {
		reply, err := cl.DocFreqs(ctx, &pb.DocFreqsRequest{Query: query, Shards: ns})
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		numDocs += reply.NumDocs
		for _, tf := range reply.Terms {
			freqs[engine.Term{Field: tf.Field, Text: tf.Term}] += tf.Frequency
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	terms := make([]engine.Term, 0, len(freqs))
	for t := range freqs {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Field != terms[j].Field {
			return terms[i].Field < terms[j].Field
		}
		return terms[i].Text < terms[j].Text
	})
	combined := &pb.DocFrequencies{NumDocs: numDocs}
	for _, t := range terms {
		combined.Terms = append(combined.Terms, &pb.TermFrequency{
			Field: t.Field, Term: t.Text, Frequency: freqs[t],
		})
	}
	return combined, nil
}

func sortsToProto(sorts []engine.SortField) []*pb.SortField {
	if len(sorts) == 0 {
		return nil
	}
	out := make([]*pb.SortField, len(sorts))
	for i, s := range sorts {
		out[i] = &pb.SortField{Field: s.Field, Reverse: s.Reverse}
	}
	return out
}

// Search runs the two-phase scatter/gather over the named indexes.
func (c *Client) Search(ctx context.Context, indexes []string, query, filter []byte, limit int, sorts []engine.SortField) (*Hits, error) {
	shards, budget, err := c.resolve(indexes)
	if err != nil {
		return nil, err
	}
	if len(shards) == 0 {
		return &Hits{}, nil
	}
	ctx, cancel, timeoutMillis := c.searchContext(ctx)
	defer cancel()

	freqs, err := c.globalFreqs(ctx, query, shards, budget)
	if err != nil {
		return nil, err
	}

	pbSorts := sortsToProto(sorts)
	var mu sync.Mutex
	var replies []*pb.HitsReply
	err = c.scatter(ctx, shards, budget, nil, func(ctx context.Context, cl pb.KattaNodeClient, _ string, ns []string) error {
		reply, err := cl.Search(ctx, &pb.SearchRequest{
			Query:         query,
			Filter:        filter,
			Freqs:         freqs,
			Shards:        ns,
			TimeoutMillis: timeoutMillis,
			Limit:         int32(limit),
			SortFields:    pbSorts,
		})
		if err != nil {
			return err
		}
		mu.Lock()
		replies = append(replies, reply)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mergeReplies(replies, limit, sorts), nil
}

// Count reuses the frequency phase plus a limit=1 search solely for the
// total hit count.
func (c *Client) Count(ctx context.Context, indexes []string, query []byte) (int64, error) {
	result, err := c.Search(ctx, indexes, query, nil, 1, nil)
	if err != nil {
		return 0, err
	}
	return result.TotalHits, nil
}

// GetDetails fetches stored fields for previously returned hits,
// grouped by the node and shard that produced them and reassembled in
// the input order.
func (c *Client) GetDetails(ctx context.Context, hits []Hit, fields []string) ([]Document, error) {
	if len(hits) == 0 {
		return nil, nil
	}
	docIDs := map[string][]int32{}
	positions := map[string][]int{}
	preferred := map[string]string{}
	var shards []string
	budget := map[string]int{}
	for i, hit := range hits {
		if _, ok := docIDs[hit.Shard]; !ok {
			shards = append(shards, hit.Shard)
			preferred[hit.Shard] = hit.Node
			retries := c.shardMap.ShardReplication(hit.Shard) - 1
			if retries < 0 {
				retries = 0
			}
			budget[hit.Shard] = retries
		}
		docIDs[hit.Shard] = append(docIDs[hit.Shard], hit.DocID)
		positions[hit.Shard] = append(positions[hit.Shard], i)
	}

	ctx, cancel, _ := c.searchContext(ctx)
	defer cancel()

	out := make([]Document, len(hits))
	var mu sync.Mutex
	err := c.scatter(ctx, shards, budget, preferred, func(ctx context.Context, cl pb.KattaNodeClient, node string, ns []string) error {
		req := &pb.DetailsRequest{Fields: fields}
		for _, shard := range ns {
			req.Shards = append(req.Shards, &pb.ShardDocIds{Shard: shard, DocIds: docIDs[shard]})
		}
		reply, err := cl.GetDetails(ctx, req)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		next := map[string]int{}
		for _, d := range reply.Docs {
			slots := positions[d.Shard]
			j := next[d.Shard]
			next[d.Shard]++
			if j >= len(slots) {
				continue
			}
			doc := Document{Node: node, Shard: d.Shard, DocID: d.DocId}
			for _, fv := range d.Fields {
				doc.Fields = append(doc.Fields, engine.FieldValue{
					Name: fv.Name, Value: fv.Value, Binary: fv.Binary,
				})
			}
			out[slots[j]] = doc
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
