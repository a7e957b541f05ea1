// Package engine defines the index-engine SPI. The coordination plane
// treats queries and filters as opaque byte blobs; an Engine interprets
// them against shard content. memindex ships a small in-memory
// implementation so the system runs end to end.
package engine

import (
	"bytes"
	"context"
	"encoding/binary"

	"github.com/RoaringBitmap/roaring/v2"
)

type Term struct {
	Field string
	Text  string
}

type TermCount struct {
	Term
	Count int64
}

// GlobalStats carries document frequencies summed across every shard of
// a query, so scoring is uniform no matter which node evaluates a
// shard.
type GlobalStats struct {
	Freqs   map[Term]int64
	NumDocs int64
}

type SortField struct {
	Field   string
	Reverse bool
}

type ScoredDoc struct {
	DocID int32
	Score float32
	// SortValues holds one order-preserving encoded value per
	// requested sort field. Mergers compare them bytewise.
	SortValues [][]byte
}

type Result struct {
	TotalHits int64
	Docs      []ScoredDoc
}

type FieldValue struct {
	Name   string
	Value  []byte
	Binary bool
}

// Engine opens shards from their unpacked on-disk form.
type Engine interface {
	OpenShard(name, dir string) (ShardReader, error)
}

// ShardReader answers queries against one shard. Implementations must
// be safe for concurrent use; Close waits for no one (the node layer
// ref-counts handles).
type ShardReader interface {
	Name() string
	NumDocs() int
	// DocFreqs rewrites the query and returns the per-term document
	// frequencies of this shard.
	DocFreqs(query []byte) ([]TermCount, error)
	// Filter evaluates a filter expression to the set of matching
	// doc ids. The node layer caches the result.
	Filter(filter []byte) (*roaring.Bitmap, error)
	// Search scores the query under the supplied global stats. A
	// deadline on ctx bounds collection; on expiry the hits gathered
	// so far are returned, not an error.
	Search(ctx context.Context, query []byte, filter *roaring.Bitmap, stats *GlobalStats, limit int, sorts []SortField) (*Result, error)
	// Details returns stored fields of one document. An empty fields
	// slice selects all of them.
	Details(docID int32, fields []string) ([]FieldValue, error)
	Close() error
}

// EncodeSortString encodes a string sort key. Raw UTF-8 bytes already
// collate correctly under bytes.Compare.
func EncodeSortString(s string) []byte {
	return []byte(s)
}

// EncodeSortInt64 encodes an integer sort key so that bytewise
// comparison matches numeric order. The sign bit is flipped to move
// negative values below positive ones.
func EncodeSortInt64(v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v)^(1<<63))
	return b[:]
}

// DecodeSortInt64 reverses EncodeSortInt64.
func DecodeSortInt64(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b) ^ (1 << 63))
}

// CompareSortValues orders two encoded sort tuples under the given sort
// fields. Missing values sort first for ascending fields and last for
// reversed ones.
func CompareSortValues(a, b [][]byte, sorts []SortField) int {
	for i := range sorts {
		var av, bv []byte
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		c := bytes.Compare(av, bv)
		if sorts[i].Reverse {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}
