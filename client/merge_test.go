package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kattaio/katta/engine"
	pb "github.com/kattaio/katta/proto"
)

func reply(node string, total int64, hits ...*pb.Hit) *pb.HitsReply {
	return &pb.HitsReply{Node: node, TotalHits: total, Hits: hits}
}

func hit(node, shard string, score float32, docID int32) *pb.Hit {
	return &pb.Hit{Node: node, Shard: shard, Score: score, DocId: docID}
}

func TestMergeByScoreOrdersAndLimits(t *testing.T) {
	replies := []*pb.HitsReply{
		reply("n1", 3, hit("n1", "s0", 0.9, 0), hit("n1", "s0", 0.4, 1), hit("n1", "s0", 0.1, 2)),
		reply("n2", 2, hit("n2", "s1", 0.8, 0), hit("n2", "s1", 0.5, 1)),
	}
	merged := mergeReplies(replies, 3, nil)
	assert.EqualValues(t, 5, merged.TotalHits)
	assert.Len(t, merged.Hits, 3)
	assert.Equal(t, float32(0.9), merged.Hits[0].Score)
	assert.Equal(t, float32(0.8), merged.Hits[1].Score)
	assert.Equal(t, float32(0.5), merged.Hits[2].Score)
}

func TestMergeByScoreTieBreak(t *testing.T) {
	replies := []*pb.HitsReply{
		reply("n2", 1, hit("n2", "s1", 0.5, 7)),
		reply("n1", 2, hit("n1", "s0", 0.5, 3), hit("n1", "s0", 0.5, 9)),
	}
	merged := mergeReplies(replies, 2, nil)
	assert.Len(t, merged.Hits, 2)
	assert.Equal(t, "n1", merged.Hits[0].Node)
	assert.EqualValues(t, 3, merged.Hits[0].DocID)
	assert.EqualValues(t, 9, merged.Hits[1].DocID)
}

func TestMergeLimitZero(t *testing.T) {
	replies := []*pb.HitsReply{reply("n1", 4, hit("n1", "s0", 1, 0))}
	merged := mergeReplies(replies, 0, nil)
	assert.EqualValues(t, 4, merged.TotalHits)
	assert.Empty(t, merged.Hits)
}

func TestMergeSortedKWay(t *testing.T) {
	sorts := []engine.SortField{{Field: "year"}}
	mk := func(node, shard string, docID int32, year int64) *pb.Hit {
		h := hit(node, shard, 0, docID)
		h.SortValues = [][]byte{engine.EncodeSortInt64(year)}
		return h
	}
	replies := []*pb.HitsReply{
		reply("n1", 2, mk("n1", "s0", 0, 1999), mk("n1", "s0", 1, 2015)),
		reply("n2", 2, mk("n2", "s1", 0, 2003), mk("n2", "s1", 1, 2020)),
	}
	merged := mergeReplies(replies, 10, sorts)
	var years []int64
	for _, h := range merged.Hits {
		years = append(years, engine.DecodeSortInt64(h.SortValues[0]))
	}
	assert.Equal(t, []int64{1999, 2003, 2015, 2020}, years)
}

func TestSelectorStickyAndWindow(t *testing.T) {
	s := newNodeSelector(30 * time.Second)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	replicas := []string{"n1", "n2"}
	first, ok := s.pick("s0", replicas, nil)
	assert.True(t, ok)
	again, _ := s.pick("s0", replicas, nil)
	assert.Equal(t, first, again)

	s.markUnreachable(first)
	other, ok := s.pick("s0", replicas, nil)
	assert.True(t, ok)
	assert.NotEqual(t, first, other)

	// flag expires after the window
	now = now.Add(31 * time.Second)
	s.markUnreachable(other)
	back, ok := s.pick("s0", replicas, nil)
	assert.True(t, ok)
	assert.Equal(t, first, back)
}

func TestSelectorAllDown(t *testing.T) {
	s := newNodeSelector(30 * time.Second)
	s.markUnreachable("n1")
	_, ok := s.pick("s0", []string{"n1"}, nil)
	assert.False(t, ok)
	_, ok = s.pick("s0", nil, nil)
	assert.False(t, ok)
}

func TestSelectorSpreadsShards(t *testing.T) {
	s := newNodeSelector(30 * time.Second)
	replicas := []string{"n1", "n2"}
	a, _ := s.pick("s0", replicas, nil)
	b, _ := s.pick("s1", replicas, nil)
	assert.NotEqual(t, a, b)
}
