package client

import (
	"container/heap"

	"github.com/kattaio/katta/engine"
	pb "github.com/kattaio/katta/proto"
)

// hitBefore is the global result order: score descending (or the sort
// tuple when one is supplied), identical keys broken by node, shard and
// docId so results are stable across runs and replica choices.
func hitBefore(a, b Hit, sorts []engine.SortField) bool {
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
	return a.DocID < b.DocID
}

// shardLists splits node replies into per-shard hit lists. Each node
// reply is already in final order, so the extracted per-shard sublists
// stay ordered too.
func shardLists(replies []*pb.HitsReply) [][]Hit {
	var lists [][]Hit
	index := map[string]int{}
	for _, reply := range replies {
		for _, h := range reply.Hits {
			hit := Hit{
				Node:       h.Node,
				Shard:      h.Shard,
				Score:      h.Score,
				DocID:      h.DocId,
				SortValues: h.SortValues,
			}
			key := h.Node + "/" + h.Shard
			i, ok := index[key]
			if !ok {
				i = len(lists)
				index[key] = i
				lists = append(lists, nil)
			}
			lists[i] = append(lists[i], hit)
		}
	}
	return lists
}

// boundedHeap keeps the best limit hits seen so far; the root is the
// weakest kept hit.
type boundedHeap struct {
	hits  []Hit
	sorts []engine.SortField
}

func (h *boundedHeap) Len() int           { return len(h.hits) }
func (h *boundedHeap) Less(i, j int) bool { return hitBefore(h.hits[j], h.hits[i], h.sorts) }
func (h *boundedHeap) Swap(i, j int)      { h.hits[i], h.hits[j] = h.hits[j], h.hits[i] }
func (h *boundedHeap) Push(x interface{}) { h.hits = append(h.hits, x.(Hit)) }
func (h *boundedHeap) Pop() interface{} {
	last := h.hits[len(h.hits)-1]
	h.hits = h.hits[:len(h.hits)-1]
	return last
}

func (h *boundedHeap) sorted() []Hit {
	out := make([]Hit, len(h.hits))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Hit)
	}
	return out
}

// mergeByScore merges score-ordered shard lists through a bounded
// priority queue. Lists are scanned positionally; once the queue is
// full a list is abandoned as soon as its next score cannot beat the
// queue minimum, which every later entry of that list also cannot.
func mergeByScore(lists [][]Hit, limit int) []Hit {
	bh := &boundedHeap{}
	for _, list := range lists {
		for _, hit := range list {
			if bh.Len() < limit {
				heap.Push(bh, hit)
				continue
			}
			weakest := bh.hits[0]
			if hit.Score < weakest.Score {
				break
			}
			if hitBefore(hit, weakest, nil) {
				bh.hits[0] = hit
				heap.Fix(bh, 0)
			}
		}
	}
	return bh.sorted()
}

// cursorHeap drives the k-way merge over sorted shard lists.
type cursorHeap struct {
	lists [][]Hit
	pos   []int
	order []int
	sorts []engine.SortField
}

func (h *cursorHeap) head(i int) Hit { return h.lists[h.order[i]][h.pos[h.order[i]]] }

func (h *cursorHeap) Len() int           { return len(h.order) }
func (h *cursorHeap) Less(i, j int) bool { return hitBefore(h.head(i), h.head(j), h.sorts) }
func (h *cursorHeap) Swap(i, j int)      { h.order[i], h.order[j] = h.order[j], h.order[i] }
func (h *cursorHeap) Push(x interface{}) { h.order = append(h.order, x.(int)) }
func (h *cursorHeap) Pop() interface{} {
	last := h.order[len(h.order)-1]
	h.order = h.order[:len(h.order)-1]
	return last
}

// mergeSorted performs a standard k-way merge over the per-shard lists,
// comparing the encoded sort tuples.
func mergeSorted(lists [][]Hit, limit int, sorts []engine.SortField) []Hit {
	ch := &cursorHeap{lists: lists, pos: make([]int, len(lists)), sorts: sorts}
	for i, list := range lists {
		if len(list) > 0 {
			ch.order = append(ch.order, i)
		}
	}
	heap.Init(ch)
	var out []Hit
	for ch.Len() > 0 && len(out) < limit {
		i := ch.order[0]
		out = append(out, ch.lists[i][ch.pos[i]])
		ch.pos[i]++
		if ch.pos[i] < len(ch.lists[i]) {
			heap.Fix(ch, 0)
		} else {
			heap.Pop(ch)
		}
	}
	return out
}

func mergeReplies(replies []*pb.HitsReply, limit int, sorts []engine.SortField) *Hits {
	out := &Hits{}
	for _, reply := range replies {
		out.TotalHits += reply.TotalHits
	}
	if limit <= 0 {
		return out
	}
	lists := shardLists(replies)
	if len(sorts) > 0 {
		out.Hits = mergeSorted(lists, limit, sorts)
	} else {
		out.Hits = mergeByScore(lists, limit)
	}
	return out
}
