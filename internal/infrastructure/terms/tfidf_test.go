package terms

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitEmptyCorpus(t *testing.T) {
	r := NewRanker(0)
	assert.Error(t, r.Fit(nil))
}

func TestFitWeightsAscendingAndNormalized(t *testing.T) {
	r := NewRanker(0)
	docs := []string{
		"funny office romance with a twist",
		"detective hunts a killer in the city",
		"office workers survive a funny week",
	}
	require.NoError(t, r.Fit(docs))

	for i := range docs {
		terms := r.TermsFor(i)
		require.NotEmpty(t, terms)

		var norm float64
		for j, term := range terms {
			norm += term.Weight * term.Weight
			if j > 0 {
				assert.GreaterOrEqual(t, term.Weight, terms[j-1].Weight)
			}
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
	}
}

func TestRareTermOutranksCommonTerm(t *testing.T) {
	r := NewRanker(0)
	docs := []string{
		"drama killer",
		"drama story",
		"drama night",
	}
	require.NoError(t, r.Fit(docs))

	terms := r.TermsFor(0)
	require.NotEmpty(t, terms)

	weight := make(map[string]float64, len(terms))
	for _, term := range terms {
		weight[term.Term] = term.Weight
	}
	// killer 仅出现在一篇文档，IDF 更高
	assert.Greater(t, weight["killer"], 0.0)
	assert.Greater(t, weight["killer"], weight["drama"])
}

func TestNgramsStopwordsAndBigrams(t *testing.T) {
	r := NewRanker(0)
	got := r.ngrams("The funny boss and the office")

	assert.Contains(t, got, "funny")
	assert.Contains(t, got, "boss")
	assert.Contains(t, got, "funny boss")
	// 停用词在组词之前剔除，二元词组跨过停用词
	assert.Contains(t, got, "boss office")
	assert.NotContains(t, got, "the")
	assert.NotContains(t, got, "and")
}

func TestVocabularyCap(t *testing.T) {
	r := NewRanker(2)
	docs := []string{
		"alpha alpha alpha beta beta gamma",
	}
	require.NoError(t, r.Fit(docs))

	terms := r.TermsFor(0)
	seen := make(map[string]struct{})
	for _, term := range terms {
		seen[term.Term] = struct{}{}
	}
	// 词表按语料总频截断：只剩频次最高的两项
	assert.Contains(t, seen, "alpha")
	assert.LessOrEqual(t, len(seen), 2)
	assert.NotContains(t, seen, "gamma")
}

func TestTermsForOutOfRange(t *testing.T) {
	r := NewRanker(0)
	require.NoError(t, r.Fit([]string{"one doc"}))
	assert.Nil(t, r.TermsFor(-1))
	assert.Nil(t, r.TermsFor(5))
}

func TestApostropheTokens(t *testing.T) {
	r := NewRanker(0)
	got := r.ngrams("she doesn't care")
	assert.Contains(t, got, "doesn't")
}
