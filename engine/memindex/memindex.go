// Package memindex is an in-memory inverted index behind the engine
// SPI. Shards are JSON document arrays; scoring is tf-idf against the
// supplied global statistics.
package memindex

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kattaio/katta/common"
	"github.com/kattaio/katta/engine"
)

// DefaultField is queried by terms written without a field prefix.
const DefaultField = "content"

// DocsFileName is the document array inside an unpacked shard
// directory.
const DocsFileName = "docs.json"

type Engine struct{}

var _ engine.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{}
}

func (e *Engine) OpenShard(name, dir string) (engine.ShardReader, error) {
	raw, err := os.ReadFile(filepath.Join(dir, DocsFileName))
	if err != nil {
		return nil, fmt.Errorf("%w: shard %s: %v", common.ErrShardOpenFailure, name, err)
	}
	var docs []map[string]interface{}
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("%w: shard %s: %v", common.ErrShardOpenFailure, name, err)
	}
	return NewShardFromDocs(name, docs), nil
}

type posting struct {
	docs *roaring.Bitmap
	tf   map[uint32]int32
}

// Shard is an immutable in-memory shard. All methods are safe for
// concurrent use once built.
type Shard struct {
	name     string
	docs     []map[string]interface{}
	postings map[engine.Term]*posting
}

var _ engine.ShardReader = (*Shard)(nil)

// NewShardFromDocs builds a shard directly from documents. Tests use
// this to skip the on-disk form.
func NewShardFromDocs(name string, docs []map[string]interface{}) *Shard {
	s := &Shard{
		name:     name,
		docs:     docs,
		postings: map[engine.Term]*posting{},
	}
	for id, doc := range docs {
		for field, value := range doc {
			text, ok := value.(string)
			if !ok {
				continue
			}
			for _, token := range tokenize(text) {
				t := engine.Term{Field: field, Text: token}
				p := s.postings[t]
				if p == nil {
					p = &posting{docs: roaring.New(), tf: map[uint32]int32{}}
					s.postings[t] = p
				}
				p.docs.Add(uint32(id))
				p.tf[uint32(id)]++
			}
		}
	}
	return s
}

// tokenize implements the standard analysis chain: split on
// non-alphanumeric runes, lowercase.
func tokenize(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return out
}

func parseQuery(query []byte) ([]engine.Term, error) {
	q := strings.TrimSpace(string(query))
	if q == "" {
		return nil, fmt.Errorf("%w: empty query", common.ErrMalformedQuery)
	}
	var terms []engine.Term
	for _, token := range strings.Fields(q) {
		field := DefaultField
		text := token
		if i := strings.Index(token, ":"); i >= 0 {
			field = token[:i]
			text = token[i+1:]
			if field == "" || text == "" {
				return nil, fmt.Errorf("%w: bad term %q", common.ErrMalformedQuery, token)
			}
		}
		toks := tokenize(text)
		if len(toks) == 0 {
			return nil, fmt.Errorf("%w: bad term %q", common.ErrMalformedQuery, token)
		}
		for _, tk := range toks {
			terms = append(terms, engine.Term{Field: field, Text: tk})
		}
	}
	return terms, nil
}

func (s *Shard) Name() string {
	return s.name
}

func (s *Shard) NumDocs() int {
	return len(s.docs)
}

func (s *Shard) DocFreqs(query []byte) ([]engine.TermCount, error) {
	terms, err := parseQuery(query)
	if err != nil {
		return nil, err
	}
	out := make([]engine.TermCount, 0, len(terms))
	for _, t := range terms {
		var df int64
		if p := s.postings[t]; p != nil {
			df = int64(p.docs.GetCardinality())
		}
		out = append(out, engine.TermCount{Term: t, Count: df})
	}
	return out, nil
}

func (s *Shard) Filter(filter []byte) (*roaring.Bitmap, error) {
	terms, err := parseQuery(filter)
	if err != nil {
		return nil, err
	}
	bm := roaring.New()
	for _, t := range terms {
		if p := s.postings[t]; p != nil {
			bm.Or(p.docs)
		}
	}
	return bm, nil
}

func (s *Shard) idf(t engine.Term, stats *engine.GlobalStats) float64 {
	var df, n int64
	if stats != nil && stats.Freqs != nil {
		df = stats.Freqs[t]
		n = stats.NumDocs
	}
	if n == 0 {
		n = int64(len(s.docs))
		if p := s.postings[t]; p != nil {
			df = int64(p.docs.GetCardinality())
		}
	}
	return 1 + math.Log(float64(n+1)/float64(df+1))
}

const collectCheckInterval = 1024

func (s *Shard) Search(ctx context.Context, query []byte, filter *roaring.Bitmap, stats *engine.GlobalStats, limit int, sorts []engine.SortField) (*engine.Result, error) {
	if len(s.docs) == 0 || limit <= 0 {
		return &engine.Result{}, nil
	}
	terms, err := parseQuery(query)
	if err != nil {
		return nil, err
	}

	candidates := roaring.New()
	idfs := make(map[engine.Term]float64, len(terms))
	for _, t := range terms {
		if p := s.postings[t]; p != nil {
			candidates.Or(p.docs)
		}
		idfs[t] = s.idf(t, stats)
	}
	if filter != nil {
		candidates.And(filter)
	}

	res := &engine.Result{}
	it := candidates.Iterator()
	checked := 0
	for it.HasNext() {
		id := it.Next()
		// deadline check is amortized; partial hits are returned, not
		// an error
		checked++
		if checked%collectCheckInterval == 0 {
			select {
			case <-ctx.Done():
				s.finish(res, limit, sorts)
				return res, nil
			default:
			}
		}
		var score float64
		for _, t := range terms {
			p := s.postings[t]
			if p == nil {
				continue
			}
			if tf := p.tf[id]; tf > 0 {
				score += float64(tf) * idfs[t]
			}
		}
		doc := engine.ScoredDoc{DocID: int32(id), Score: float32(score)}
		if len(sorts) > 0 {
			doc.SortValues = s.sortValues(int(id), sorts)
		}
		res.TotalHits++
		res.Docs = append(res.Docs, doc)
	}
	s.finish(res, limit, sorts)
	return res, nil
}

// finish orders collected docs and truncates to the limit. Without
// sort fields the order is score descending with ascending doc id
// breaking ties.
func (s *Shard) finish(res *engine.Result, limit int, sorts []engine.SortField) {
	if len(sorts) > 0 {
		sort.SliceStable(res.Docs, func(i, j int) bool {
			c := engine.CompareSortValues(res.Docs[i].SortValues, res.Docs[j].SortValues, sorts)
			if c != 0 {
				return c < 0
			}
			return res.Docs[i].DocID < res.Docs[j].DocID
		})
	} else {
		sort.SliceStable(res.Docs, func(i, j int) bool {
			if res.Docs[i].Score != res.Docs[j].Score {
				return res.Docs[i].Score > res.Docs[j].Score
			}
			return res.Docs[i].DocID < res.Docs[j].DocID
		})
	}
	if len(res.Docs) > limit {
		res.Docs = res.Docs[:limit]
	}
}

func (s *Shard) sortValues(id int, sorts []engine.SortField) [][]byte {
	out := make([][]byte, len(sorts))
	doc := s.docs[id]
	for i, sf := range sorts {
		switch v := doc[sf.Field].(type) {
		case string:
			out[i] = engine.EncodeSortString(v)
		case float64:
			out[i] = engine.EncodeSortInt64(int64(v))
		default:
			out[i] = nil
		}
	}
	return out
}

func (s *Shard) Details(docID int32, fields []string) ([]engine.FieldValue, error) {
	if docID < 0 || int(docID) >= len(s.docs) {
		return nil, fmt.Errorf("shard %s: no document %d", s.name, docID)
	}
	doc := s.docs[docID]
	names := fields
	if len(names) == 0 {
		names = make([]string, 0, len(doc))
		for name := range doc {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	out := make([]engine.FieldValue, 0, len(names))
	for _, name := range names {
		v, ok := doc[name]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			out = append(out, engine.FieldValue{Name: name, Value: []byte(val)})
		case float64:
			out = append(out, engine.FieldValue{Name: name, Value: []byte(strconv.FormatInt(int64(val), 10))})
		}
	}
	return out, nil
}

func (s *Shard) Close() error {
	return nil
}
