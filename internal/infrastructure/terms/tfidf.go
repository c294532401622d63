// Package terms 提供 TF-IDF 词项重要性排序实现
package terms

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"short-drama-ai-api/internal/application/retrieval"
)

// Ranker TF-IDF 词项排序器：一元词 + 二元词组，英文停用词过滤，词表截断。
// 实现应用层 TermRanker port。
type Ranker struct {
	vocabLimit   int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}

	docTerms [][]retrieval.ScoredTerm
}

// NewRanker 创建排序器。vocabLimit <= 0 表示词表不设上限。
func NewRanker(vocabLimit int) *Ranker {
	return &Ranker{
		vocabLimit:   vocabLimit,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

var _ retrieval.TermRanker = (*Ranker)(nil)

// Fit 在语料上拟合词表与 IDF，并为每篇文档预计算词项权重。
func (r *Ranker) Fit(docs []string) error {
	if len(docs) == 0 {
		return errors.New("empty corpus for TF-IDF fit")
	}

	docNgrams := make([][]string, len(docs))
	totalCount := make(map[string]int)
	df := make(map[string]int)
	for i, doc := range docs {
		ngrams := r.ngrams(doc)
		docNgrams[i] = ngrams
		seen := make(map[string]struct{}, len(ngrams))
		for _, t := range ngrams {
			totalCount[t]++
			if _, dup := seen[t]; !dup {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}

	vocab := r.capVocabulary(totalCount)

	// 平滑 IDF
	n := float64(len(docs))
	idf := make(map[string]float64, len(vocab))
	for term := range vocab {
		idf[term] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	r.docTerms = make([][]retrieval.ScoredTerm, len(docs))
	for i, ngrams := range docNgrams {
		tf := make(map[string]int)
		for _, t := range ngrams {
			if _, ok := vocab[t]; ok {
				tf[t]++
			}
		}

		weights := make([]retrieval.ScoredTerm, 0, len(tf))
		var norm float64
		for term, count := range tf {
			w := float64(count) * idf[term]
			norm += w * w
			weights = append(weights, retrieval.ScoredTerm{Term: term, Weight: w})
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range weights {
				weights[j].Weight /= norm
			}
		}

		// 权重升序，同分按词典序保证确定性
		sort.Slice(weights, func(a, b int) bool {
			if weights[a].Weight != weights[b].Weight {
				return weights[a].Weight < weights[b].Weight
			}
			return weights[a].Term < weights[b].Term
		})
		r.docTerms[i] = weights
	}
	return nil
}

// TermsFor 返回第 i 篇文档的词项权重（升序）。越界返回 nil。
func (r *Ranker) TermsFor(docIndex int) []retrieval.ScoredTerm {
	if r == nil || docIndex < 0 || docIndex >= len(r.docTerms) {
		return nil
	}
	return r.docTerms[docIndex]
}

// ngrams 生成一元词与相邻二元词组，停用词先于组词剔除。
func (r *Ranker) ngrams(text string) []string {
	lower := strings.ToLower(text)
	raw := r.tokenPattern.FindAllString(lower, -1)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, isStop := r.stopwords[t]; isStop {
			continue
		}
		tokens = append(tokens, t)
	}

	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// capVocabulary 按语料总频截断词表，同频按词典序，保证可复现。
func (r *Ranker) capVocabulary(totalCount map[string]int) map[string]struct{} {
	if r.vocabLimit <= 0 || len(totalCount) <= r.vocabLimit {
		vocab := make(map[string]struct{}, len(totalCount))
		for term := range totalCount {
			vocab[term] = struct{}{}
		}
		return vocab
	}

	terms := make([]string, 0, len(totalCount))
	for term := range totalCount {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(a, b int) bool {
		if totalCount[terms[a]] != totalCount[terms[b]] {
			return totalCount[terms[a]] > totalCount[terms[b]]
		}
		return terms[a] < terms[b]
	})

	vocab := make(map[string]struct{}, r.vocabLimit)
	for _, term := range terms[:r.vocabLimit] {
		vocab[term] = struct{}{}
	}
	return vocab
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to",
		"of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were",
		"be", "been", "being", "it", "this", "that", "these", "those", "from",
		"up", "down", "over", "under", "again", "further", "than", "so", "such",
		"into", "about", "between", "through", "during", "before", "after",
		"above", "below", "out", "off", "own", "same", "too", "very", "can",
		"will", "just", "don", "should", "now", "he", "she", "they", "them",
		"his", "her", "their", "who", "what", "which", "when", "where", "why",
		"how", "all", "any", "both", "each", "few", "more", "most", "other",
		"some", "no", "nor", "not", "only", "while", "because", "until", "has",
		"have", "had", "do", "does", "did", "you", "your", "we", "our", "its",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
