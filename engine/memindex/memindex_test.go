package memindex_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kattaio/katta/common"
	"github.com/kattaio/katta/engine"
	"github.com/kattaio/katta/engine/memindex"
)

func testDocs() []map[string]interface{} {
	return []map[string]interface{}{
		{"title": "go concurrency", "content": "channels and goroutines", "year": float64(2019)},
		{"title": "distributed search", "content": "sharded indexes and scatter gather", "year": float64(2021)},
		{"title": "inverted index basics", "content": "postings and terms and scoring", "year": float64(2018)},
	}
}

func TestSearchRanksByScore(t *testing.T) {
	s := memindex.NewShardFromDocs("s0", testDocs())
	res, err := s.Search(context.Background(), []byte("content:and"), nil, nil, 10, nil)
	require.Nil(t, err)
	assert.EqualValues(t, 3, res.TotalHits)
	require.Len(t, res.Docs, 3)
	// doc 2 repeats "and" twice, highest tf wins
	assert.EqualValues(t, 2, res.Docs[0].DocID)
}

func TestSearchDefaultFieldAndLimit(t *testing.T) {
	s := memindex.NewShardFromDocs("s0", testDocs())
	res, err := s.Search(context.Background(), []byte("postings"), nil, nil, 10, nil)
	require.Nil(t, err)
	assert.EqualValues(t, 1, res.TotalHits)

	res, err = s.Search(context.Background(), []byte("content:and"), nil, nil, 1, nil)
	require.Nil(t, err)
	assert.EqualValues(t, 3, res.TotalHits)
	assert.Len(t, res.Docs, 1)

	res, err = s.Search(context.Background(), []byte("content:and"), nil, nil, 0, nil)
	require.Nil(t, err)
	assert.EqualValues(t, 0, res.TotalHits)
	assert.Empty(t, res.Docs)
}

func TestSearchWithGlobalStats(t *testing.T) {
	s := memindex.NewShardFromDocs("s0", testDocs())
	term := engine.Term{Field: "content", Text: "postings"}
	// pretend the term is common cluster-wide; score must drop
	rare, err := s.Search(context.Background(), []byte("postings"), nil,
		&engine.GlobalStats{Freqs: map[engine.Term]int64{term: 1}, NumDocs: 1000}, 10, nil)
	require.Nil(t, err)
	frequent, err := s.Search(context.Background(), []byte("postings"), nil,
		&engine.GlobalStats{Freqs: map[engine.Term]int64{term: 900}, NumDocs: 1000}, 10, nil)
	require.Nil(t, err)
	assert.Greater(t, rare.Docs[0].Score, frequent.Docs[0].Score)
}

func TestSearchSorted(t *testing.T) {
	s := memindex.NewShardFromDocs("s0", testDocs())
	sorts := []engine.SortField{{Field: "year"}}
	res, err := s.Search(context.Background(), []byte("content:and"), nil, nil, 10, sorts)
	require.Nil(t, err)
	require.Len(t, res.Docs, 3)
	assert.EqualValues(t, 2, res.Docs[0].DocID) // 2018
	assert.EqualValues(t, 0, res.Docs[1].DocID) // 2019
	assert.EqualValues(t, 1, res.Docs[2].DocID) // 2021
	assert.EqualValues(t, 2018, engine.DecodeSortInt64(res.Docs[0].SortValues[0]))

	sorts[0].Reverse = true
	res, err = s.Search(context.Background(), []byte("content:and"), nil, nil, 10, sorts)
	require.Nil(t, err)
	assert.EqualValues(t, 1, res.Docs[0].DocID)
}

func TestSearchFiltered(t *testing.T) {
	s := memindex.NewShardFromDocs("s0", testDocs())
	bm, err := s.Filter([]byte("title:search"))
	require.Nil(t, err)
	assert.EqualValues(t, 1, bm.GetCardinality())

	res, err := s.Search(context.Background(), []byte("content:and"), bm, nil, 10, nil)
	require.Nil(t, err)
	assert.EqualValues(t, 1, res.TotalHits)
	assert.EqualValues(t, 1, res.Docs[0].DocID)
}

func TestDocFreqs(t *testing.T) {
	s := memindex.NewShardFromDocs("s0", testDocs())
	freqs, err := s.DocFreqs([]byte("content:and title:index"))
	require.Nil(t, err)
	require.Len(t, freqs, 2)
	assert.EqualValues(t, 3, freqs[0].Count)
	assert.EqualValues(t, 1, freqs[1].Count)
}

func TestMalformedQuery(t *testing.T) {
	s := memindex.NewShardFromDocs("s0", testDocs())
	for _, q := range []string{"", "   ", "title:", ":foo", "title:!!"} {
		_, err := s.DocFreqs([]byte(q))
		assert.ErrorIs(t, err, common.ErrMalformedQuery, "query %q", q)
	}
}

func TestDetails(t *testing.T) {
	s := memindex.NewShardFromDocs("s0", testDocs())
	fields, err := s.Details(1, []string{"title"})
	require.Nil(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "title", fields[0].Name)
	assert.Equal(t, "distributed search", string(fields[0].Value))

	all, err := s.Details(1, nil)
	require.Nil(t, err)
	assert.Len(t, all, 3)

	_, err = s.Details(99, nil)
	assert.NotNil(t, err)
}

func TestSearchDeadlineReturnsPartial(t *testing.T) {
	docs := make([]map[string]interface{}, 5000)
	for i := range docs {
		docs[i] = map[string]interface{}{"content": "common term"}
	}
	s := memindex.NewShardFromDocs("big", docs)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	res, err := s.Search(ctx, []byte("common"), nil, nil, 10, nil)
	require.Nil(t, err)
	// expired budget still yields a result, possibly truncated
	assert.True(t, res.TotalHits <= 5000)
	assert.True(t, len(res.Docs) <= 10)
}

func TestOpenShardFromDisk(t *testing.T) {
	dir := t.TempDir()
	raw, err := json.Marshal(testDocs())
	require.Nil(t, err)
	require.Nil(t, os.WriteFile(filepath.Join(dir, memindex.DocsFileName), raw, 0o644))

	eng := memindex.New()
	reader, err := eng.OpenShard("s0", dir)
	require.Nil(t, err)
	defer reader.Close()
	assert.Equal(t, "s0", reader.Name())
	assert.Equal(t, 3, reader.NumDocs())

	_, err = eng.OpenShard("bad", t.TempDir())
	assert.ErrorIs(t, err, common.ErrShardOpenFailure)
}
