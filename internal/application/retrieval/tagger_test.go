package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTagsEmptyCorpus(t *testing.T) {
	got, err := ExtractTags(&stubRanker{}, nil, 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExtractTagsTakesTopAndReverses(t *testing.T) {
	ranker := &stubRanker{perDoc: []ScoredTerm{
		{Term: "weak", Weight: 0.1},
		{Term: "medium", Weight: 0.4},
		{Term: "strong", Weight: 0.9},
	}}
	got, err := ExtractTags(ranker, []string{"doc"}, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	// 升序输入的末尾 topK 反转为重要性降序
	assert.Equal(t, []string{"strong", "medium"}, got[0])
}

func TestExtractTagsDropsZeroWeightAndShortTerms(t *testing.T) {
	ranker := &stubRanker{perDoc: []ScoredTerm{
		{Term: "dead", Weight: 0},
		{Term: "ok", Weight: 0.5},
		{Term: "valid term", Weight: 0.8},
	}}
	got, err := ExtractTags(ranker, []string{"doc"}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"valid term"}, got[0])
}

func TestExtractTagsAllZeroWeightsYieldEmptyList(t *testing.T) {
	ranker := &stubRanker{perDoc: []ScoredTerm{
		{Term: "nothing", Weight: 0},
	}}
	got, err := ExtractTags(ranker, []string{"doc"}, 3)
	require.NoError(t, err)
	assert.Empty(t, got[0])
}

func TestExtractTagsTopKZeroKeepsAll(t *testing.T) {
	ranker := &stubRanker{perDoc: []ScoredTerm{
		{Term: "aaa", Weight: 0.2},
		{Term: "bbb", Weight: 0.7},
	}}
	got, err := ExtractTags(ranker, []string{"doc"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"bbb", "aaa"}, got[0])
}
