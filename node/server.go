package node

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"

	"github.com/kattaio/katta/common"
	"github.com/kattaio/katta/engine"
	pb "github.com/kattaio/katta/proto"
)

const (
	defaultCorePoolSize  = 25
	defaultMaxPoolSize   = 100
	defaultTimeoutPct    = 0.75
	defaultSearchTimeout = 10 * time.Second
)

// SearchService answers the KattaNode RPCs against the shards the node
// has open. One instance serves all shards; per-query work is bounded
// by the shared executor and the collector budget.
type SearchService struct {
	pb.UnimplementedKattaNodeServer

	nodeName   string
	shards     *shardManager
	exec       *executor
	timer      *searchTimer
	timeoutPct float64
}

func NewSearchService(nodeName string, shards *shardManager, timeoutPct float64) *SearchService {
	if timeoutPct <= 0 || timeoutPct > 1 {
		timeoutPct = defaultTimeoutPct
	}
	return &SearchService{
		nodeName:   nodeName,
		shards:     shards,
		exec:       newExecutor(defaultCorePoolSize, defaultMaxPoolSize),
		timer:      newSearchTimer(),
		timeoutPct: timeoutPct,
	}
}

func (s *SearchService) Close() {
	s.exec.Close()
	s.timer.Close()
}

// runOnShards fans work out over the executor and waits for all of it.
// The first error wins; the rest are dropped.
func (s *SearchService) runOnShards(handles []*shardHandle, work func(h *shardHandle) error) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for _, h := range handles {
		h := h
		wg.Add(1)
		s.exec.Submit(func() {
			defer wg.Done()
			if err := work(h); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	return firstErr
}

func (s *SearchService) DocFreqs(ctx context.Context, req *pb.DocFreqsRequest) (*pb.DocFrequencies, error) {
	handles, release, err := s.shards.pin(req.Shards)
	if err != nil {
		return nil, err
	}
	defer release()

	var mu sync.Mutex
	freqs := map[engine.Term]int64{}
	order := []engine.Term{}
	var numDocs int64
	err = s.runOnShards(handles, func(h *shardHandle) error {
		counts, err := h.reader.DocFreqs(req.Query)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		numDocs += int64(h.reader.NumDocs())
		for _, tc := range counts {
			if _, ok := freqs[tc.Term]; !ok {
				order = append(order, tc.Term)
			}
			freqs[tc.Term] += tc.Count
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].Field != order[j].Field {
			return order[i].Field < order[j].Field
		}
		return order[i].Text < order[j].Text
	})
	reply := &pb.DocFrequencies{NumDocs: numDocs}
	for _, t := range order {
		reply.Terms = append(reply.Terms, &pb.TermFrequency{
			Field: t.Field, Term: t.Text, Frequency: freqs[t],
		})
	}
	return reply, nil
}

func statsFromProto(freqs *pb.DocFrequencies) *engine.GlobalStats {
	if freqs == nil {
		return nil
	}
	stats := &engine.GlobalStats{
		Freqs:   make(map[engine.Term]int64, len(freqs.Terms)),
		NumDocs: freqs.NumDocs,
	}
	for _, tf := range freqs.Terms {
		stats.Freqs[engine.Term{Field: tf.Field, Text: tf.Term}] = tf.Frequency
	}
	return stats
}

func sortsFromProto(fields []*pb.SortField) []engine.SortField {
	if len(fields) == 0 {
		return nil
	}
	out := make([]engine.SortField, len(fields))
	for i, f := range fields {
		out[i] = engine.SortField{Field: f.Field, Reverse: f.Reverse}
	}
	return out
}

func (s *SearchService) Search(ctx context.Context, req *pb.SearchRequest) (*pb.HitsReply, error) {
	if req.Limit <= 0 {
		return &pb.HitsReply{Node: s.nodeName}, nil
	}
	handles, release, err := s.shards.pin(req.Shards)
	if err != nil {
		return nil, err
	}
	defer release()

	// the collector budget is a fraction of the client timeout so the
	// reply still makes it back before the client gives up
	collectCtx := ctx
	startTick := s.timer.Ticks()
	var allowedTicks int64
	if req.TimeoutMillis > 0 {
		budget := time.Duration(float64(req.TimeoutMillis)*s.timeoutPct) * time.Millisecond
		allowedTicks = budgetTicks(budget)
		var cancel context.CancelFunc
		collectCtx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	stats := statsFromProto(req.Freqs)
	sorts := sortsFromProto(req.SortFields)

	var mu sync.Mutex
	reply := &pb.HitsReply{Node: s.nodeName}
	err = s.runOnShards(handles, func(h *shardHandle) error {
		res, err := s.searchShard(collectCtx, h, req, stats, sorts)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		reply.TotalHits += res.TotalHits
		for _, doc := range res.Docs {
			reply.Hits = append(reply.Hits, &pb.Hit{
				Shard:      h.name,
				Node:       s.nodeName,
				Score:      doc.Score,
				DocId:      doc.DocID,
				SortValues: doc.SortValues,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortHits(reply.Hits, sorts)
	if int32(len(reply.Hits)) > req.Limit {
		reply.Hits = reply.Hits[:req.Limit]
	}
	if used := s.timer.Ticks() - startTick; allowedTicks > 0 && used >= allowedTicks {
		common.Log().Info("search exhausted collector budget, returning partial hits",
			zap.String("node", s.nodeName), zap.Int64("ticks", used))
	}
	return reply, nil
}

func (s *SearchService) searchShard(ctx context.Context, h *shardHandle, req *pb.SearchRequest, stats *engine.GlobalStats, sorts []engine.SortField) (*engine.Result, error) {
	var filter *roaring.Bitmap
	if len(req.Filter) > 0 {
		bm, err := s.shards.cachedFilter(h, req.Filter)
		if err != nil {
			return nil, err
		}
		filter = bm
	}
	return h.reader.Search(ctx, req.Query, filter, stats, int(req.Limit), sorts)
}

// sortHits orders merged hits the same way the client-side merge does,
// so single-node replies are already in final order.
func sortHits(hits []*pb.Hit, sorts []engine.SortField) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if len(sorts) > 0 {
			if c := engine.CompareSortValues(a.SortValues, b.SortValues, sorts); c != 0 {
				return c < 0
			}
		} else if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Node != b.Node {
			return a.Node < b.Node
		}
		if a.Shard != b.Shard {
			return a.Shard < b.Shard
		}
		return a.DocId < b.DocId
	})
}

func (s *SearchService) GetDetails(ctx context.Context, req *pb.DetailsRequest) (*pb.DetailsReply, error) {
	reply := &pb.DetailsReply{}
	results := make([][]*pb.DocumentDetails, len(req.Shards))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for i, sd := range req.Shards {
		i, sd := i, sd
		handles, release, err := s.shards.pin([]string{sd.Shard})
		if err != nil {
			return nil, err
		}
		h := handles[0]
		wg.Add(1)
		s.exec.Submit(func() {
			defer wg.Done()
			defer release()
			docs := make([]*pb.DocumentDetails, 0, len(sd.DocIds))
			for _, id := range sd.DocIds {
				fields, err := h.reader.Details(id, req.Fields)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				dd := &pb.DocumentDetails{Shard: sd.Shard, DocId: id}
				for _, fv := range fields {
					dd.Fields = append(dd.Fields, &pb.FieldValue{
						Name: fv.Name, Value: fv.Value, Binary: fv.Binary,
					})
				}
				docs = append(docs, dd)
			}
			mu.Lock()
			results[i] = docs
			mu.Unlock()
		})
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	for _, docs := range results {
		reply.Docs = append(reply.Docs, docs...)
	}
	return reply, nil
}
