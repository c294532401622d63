package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineDisabledWithoutSnapshot(t *testing.T) {
	e := NewEngine(&stubEmbedder{}, newStubStore(), nil, DefaultParams())
	assert.False(t, e.Enabled())

	_, err := e.searchChunks(context.Background(), "q", 5, 3)
	assert.ErrorIs(t, err, ErrIndexUnavailable)

	_, err = e.hybridRank(context.Background(), "q", 5)
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestSearchChunksDropsOutOfRangeRowIDs(t *testing.T) {
	store := newStubStore()
	store.hits["t_chunks_1"] = []Hit{
		{RowID: 0, Score: 0.9},
		{RowID: -1, Score: 0.8},
		{RowID: 99, Score: 0.7},
		{RowID: 2, Score: 0.6},
	}
	e := testEngine(store)

	hits, err := e.searchChunks(context.Background(), "boss prank", 4, 1)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(101), hits[0].Meta.DramaID)
	assert.Equal(t, int64(102), hits[1].Meta.DramaID)
}

func TestFilterByDrama(t *testing.T) {
	hits := []chunkHit{
		{Score: 0.9, Meta: ChunkRecord{DramaID: 101}},
		{Score: 0.8, Meta: ChunkRecord{DramaID: 102}},
		{Score: 0.7, Meta: ChunkRecord{DramaID: 101}},
	}
	got := filterByDrama(hits, 101)
	require.Len(t, got, 2)
	for _, h := range got {
		assert.Equal(t, int64(101), h.Meta.DramaID)
	}
	assert.Empty(t, filterByDrama(hits, 999))
}

func TestAggregateToDramasDedupeKeepsMaxScore(t *testing.T) {
	e := testEngine(newStubStore())
	hits := []chunkHit{
		{Score: 0.80, Meta: ChunkRecord{DramaID: 1, Title: "A", Chunk: "low"}},
		{Score: 0.90, Meta: ChunkRecord{DramaID: 2, Title: "B", Chunk: "two"}},
		{Score: 0.85, Meta: ChunkRecord{DramaID: 1, Title: "A", Chunk: "high"}},
		{Score: 0.90, Meta: ChunkRecord{DramaID: 3, Title: "C", Chunk: "three"}},
	}

	items := e.aggregateToDramas(hits, true, 0)
	require.Len(t, items, 3)

	// 同分时保持分组首次出现的先后
	assert.Equal(t, int64(2), items[0].DramaID)
	assert.Equal(t, int64(3), items[1].DramaID)
	assert.Equal(t, int64(1), items[2].DramaID)
	assert.Equal(t, "high", items[2].Snippet)
	assert.InDelta(t, 0.85, items[2].Score, 1e-6)
}

func TestAggregateToDramasLimit(t *testing.T) {
	e := testEngine(newStubStore())
	hits := []chunkHit{
		{Score: 0.9, Meta: ChunkRecord{DramaID: 1, Title: "A", Chunk: "a"}},
		{Score: 0.8, Meta: ChunkRecord{DramaID: 2, Title: "B", Chunk: "b"}},
		{Score: 0.7, Meta: ChunkRecord{DramaID: 3, Title: "C", Chunk: "c"}},
	}
	items := e.aggregateToDramas(hits, true, 2)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].DramaID)
	assert.Equal(t, int64(2), items[1].DramaID)
}

func TestAggregateSnippetFlattensNewlinesAndTruncates(t *testing.T) {
	params := DefaultParams()
	params.SnippetMaxChars = 10
	e := NewEngine(&stubEmbedder{}, newStubStore(), testSnapshot(), params)

	hits := []chunkHit{
		{Score: 0.9, Meta: ChunkRecord{DramaID: 1, Title: "A", Chunk: "line one\nline two"}},
	}
	items := e.aggregateToDramas(hits, false, 0)
	require.Len(t, items, 1)
	assert.NotContains(t, items[0].Snippet, "\n")
	assert.LessOrEqual(t, len([]rune(items[0].Snippet)), 10)
	assert.True(t, strings.HasPrefix("line one line two", items[0].Snippet))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "你好世", truncateRunes("你好世界", 3))
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "unlimited", truncateRunes("unlimited", 0))
}
