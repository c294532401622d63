package retrieval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuildParams(dir string) BuildParams {
	return BuildParams{
		Dir:              dir,
		CollectionPrefix: "test",
		SourceName:       "csv",
		ChunkSize:        400,
		ChunkOverlap:     60,
		MinChunkChars:    10,
		TagTopK:          3,
		Model:            "test-model",
		Dimension:        3,
		BatchSize:        2,
	}
}

func testCatalogRows() []CatalogRow {
	return []CatalogRow{
		{ID: 1, Title: "Alpha", Description: "A funny office romance with a twist. The boss falls hard.", Category: "Comedy"},
		{ID: 2, Title: "Beta", Description: "A detective hunts a killer through the rainy city.", Category: "Mystery"},
		{ID: 0, Title: "Ghost", Description: "missing id"},
		{ID: 3, Title: "   ", Description: "blank title"},
	}
}

func testBuilder(dir string, source CatalogSource, store *stubStore) *Builder {
	ranker := &stubRanker{perDoc: []ScoredTerm{
		{Term: "city lights", Weight: 0.3},
		{Term: "romance", Weight: 0.7},
	}}
	return NewBuilder(source, &stubEmbedder{}, store, ranker, testBuildParams(dir))
}

func TestBuildPublishesSnapshot(t *testing.T) {
	dir := t.TempDir()
	store := newStubStore()
	b := testBuilder(dir, &stubSource{rows: testCatalogRows()}, store)

	manifest, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, manifest.Rows)
	assert.Equal(t, 2, manifest.Excluded)
	assert.Equal(t, "csv", manifest.Source)
	assert.Equal(t, "test-model", manifest.Model)
	assert.True(t, strings.HasPrefix(manifest.ChunkCollection, "test_chunks_"))
	assert.True(t, strings.HasPrefix(manifest.DramaCollection, "test_dramas_"))
	assert.Greater(t, manifest.Chunks, 0)
	assert.Greater(t, manifest.AvgChunkChars, 0.0)

	// 两级集合均已创建、写入并加载
	assert.Equal(t, 3, store.created[manifest.ChunkCollection])
	assert.Equal(t, 3, store.created[manifest.DramaCollection])
	assert.Contains(t, store.loaded, manifest.ChunkCollection)
	assert.Contains(t, store.loaded, manifest.DramaCollection)

	// row_id 稠密且从 0 起
	chunkIDs := store.rowIDs[manifest.ChunkCollection]
	require.Len(t, chunkIDs, manifest.Chunks)
	for i, id := range chunkIDs {
		assert.Equal(t, int64(i), id)
	}
	assert.Equal(t, []int64{0, 1}, store.rowIDs[manifest.DramaCollection])

	// 发布产物可被在线侧完整加载
	snap, err := LoadSnapshot(dir)
	require.NoError(t, err)
	assert.Equal(t, manifest.BuildID, snap.Manifest.BuildID)
	assert.Len(t, snap.Chunks, manifest.Chunks)
	require.Len(t, snap.Dramas, 2)
	assert.Equal(t, []string{"romance", "city lights"}, snap.Dramas[0].Tags)

	// 锁已释放，暂存目录已清理
	_, err = os.Stat(filepath.Join(dir, lockFileName))
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".staging-"))
	}
}

func TestBuildRefusesConcurrentBuild(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, lockFileName), []byte("123"), 0o644))

	b := testBuilder(dir, &stubSource{rows: testCatalogRows()}, newStubStore())
	_, err := b.Build(context.Background())
	assert.ErrorIs(t, err, ErrBuildLocked)
}

func TestBuildEmptyCatalog(t *testing.T) {
	dir := t.TempDir()
	rows := []CatalogRow{{ID: 0, Title: "no id"}}
	b := testBuilder(dir, &stubSource{rows: rows}, newStubStore())

	_, err := b.Build(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	// 失败后锁应已释放
	_, err = os.Stat(filepath.Join(dir, lockFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildDropsHalfBuiltCollectionsOnError(t *testing.T) {
	dir := t.TempDir()
	store := newStubStore()
	embedder := &stubEmbedder{err: errors.New("embedding service down")}
	ranker := &stubRanker{perDoc: []ScoredTerm{{Term: "romance", Weight: 0.7}}}
	b := NewBuilder(&stubSource{rows: testCatalogRows()}, embedder, store, ranker, testBuildParams(dir))

	_, err := b.Build(context.Background())
	require.Error(t, err)

	require.Len(t, store.dropped, 2)
	// 建到一半的新集合被清理，manifest 未发布
	_, err = os.Stat(filepath.Join(dir, manifestFile))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildDropsPreviousCollections(t *testing.T) {
	dir := t.TempDir()
	store := newStubStore()
	source := &stubSource{rows: testCatalogRows()}

	first, err := testBuilder(dir, source, store).Build(context.Background())
	require.NoError(t, err)

	second, err := testBuilder(dir, source, store).Build(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, first.BuildID, second.BuildID)

	assert.Contains(t, store.dropped, first.ChunkCollection)
	assert.Contains(t, store.dropped, first.DramaCollection)

	snap, err := LoadSnapshot(dir)
	require.NoError(t, err)
	assert.Equal(t, second.BuildID, snap.Manifest.BuildID)
}

func TestBuildMaxRowsLimitsCatalog(t *testing.T) {
	dir := t.TempDir()
	store := newStubStore()
	params := testBuildParams(dir)
	params.MaxRows = 1
	ranker := &stubRanker{perDoc: []ScoredTerm{{Term: "romance", Weight: 0.7}}}
	b := NewBuilder(&stubSource{rows: testCatalogRows()}, &stubEmbedder{}, store, ranker, params)

	manifest, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, manifest.Rows)
	assert.Equal(t, 0, manifest.Excluded)
}

func TestBuildChunkCorpusFallsBackToTitle(t *testing.T) {
	params := testBuildParams(t.TempDir())
	params.MinChunkChars = 1000
	b := NewBuilder(nil, nil, nil, nil, params)

	rows := []CatalogRow{{ID: 7, Title: "Tiny", Description: "Too short."}}
	chunks := b.buildChunkCorpus(rows)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Tiny", chunks[0].Chunk)
	assert.Equal(t, int64(7), chunks[0].DramaID)
}
