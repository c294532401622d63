package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceDisabled(t *testing.T) {
	s := NewService(NewEngine(&stubEmbedder{}, newStubStore(), nil, DefaultParams()))
	assert.False(t, s.Enabled())

	_, err := s.Ask(context.Background(), AskInput{Question: "q", Scene: SceneSearch})
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestAskSearchSceneUsesDramaCollection(t *testing.T) {
	store := newStubStore()
	store.hits["t_dramas_1"] = []Hit{{RowID: 0, Score: 0.9}}
	s := NewService(testEngine(store))

	res, err := s.Ask(context.Background(), AskInput{Question: "funny drama", Scene: SceneSearch, TopK: 3})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, []string{"t_dramas_1"}, store.searched)
}

func TestAskQAWithoutDramaIDUsesHybridRank(t *testing.T) {
	store := newStubStore()
	store.hits["t_dramas_1"] = []Hit{{RowID: 1, Score: 0.9}}
	s := NewService(testEngine(store))

	res, err := s.Ask(context.Background(), AskInput{Question: "who is the killer", Scene: SceneQA})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, []string{"t_dramas_1"}, store.searched)
}

func TestAskQAWithDramaIDFiltersChunks(t *testing.T) {
	store := newStubStore()
	store.hits["t_chunks_1"] = []Hit{
		{RowID: 2, Score: 0.95}, // drama 102
		{RowID: 0, Score: 0.90}, // drama 101
		{RowID: 1, Score: 0.85}, // drama 101
	}
	s := NewService(testEngine(store))

	res, err := s.Ask(context.Background(), AskInput{Question: "does he fall for her", Scene: SceneQA, DramaID: 101, TopK: 5})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(101), res.Items[0].DramaID)
	assert.InDelta(t, 0.90, res.Items[0].Score, 1e-6)
	// 过滤有命中时只检索一次
	assert.Equal(t, []string{"t_chunks_1"}, store.searched)
}

func TestAskQAFallsBackWhenFilterEmpty(t *testing.T) {
	store := newStubStore()
	store.hits["t_chunks_1"] = []Hit{
		{RowID: 2, Score: 0.95}, // drama 102
		{RowID: 3, Score: 0.90}, // drama 103
	}
	s := NewService(testEngine(store))

	res, err := s.Ask(context.Background(), AskInput{Question: "anything", Scene: SceneQA, DramaID: 777, TopK: 5})
	require.NoError(t, err)

	// 指定剧目无命中：放弃限定并兜底一次无过滤检索
	assert.Equal(t, []string{"t_chunks_1", "t_chunks_1"}, store.searched)
	require.Len(t, res.Items, 2)
	assert.Equal(t, int64(102), res.Items[0].DramaID)
	assert.Equal(t, int64(103), res.Items[1].DramaID)
}

func TestAskFillsDefaultTopK(t *testing.T) {
	store := newStubStore()
	hits := make([]Hit, 0, 8)
	for i := 0; i < 3; i++ {
		hits = append(hits, Hit{RowID: int64(i), Score: float32(0.9) - float32(i)*0.1})
	}
	store.hits["t_dramas_1"] = hits
	s := NewService(testEngine(store))

	res, err := s.Ask(context.Background(), AskInput{Question: "drama", Scene: SceneRecommend})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Items), DefaultParams().TopKDefault)
	assert.NotEmpty(t, res.Items)
}
