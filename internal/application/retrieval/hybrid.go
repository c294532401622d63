package retrieval

import (
	"context"
	"sort"
	"strings"
	"time"

	"short-drama-ai-api/pkg/metrics"
)

// CategoryBonusRule 类目加成规则：查询词命中 Terms 且候选类目包含 Categories
// 之一时，额外加 Bonus 分。规则之间可叠加。
type CategoryBonusRule struct {
	Terms      []string
	Categories []string
	Bonus      float64
}

// DefaultSynonyms 内置同义词扩展表（英文短剧域）。
func DefaultSynonyms() map[string][]string {
	return map[string][]string{
		"funny":    {"comedy", "hilarious"},
		"comedy":   {"funny"},
		"love":     {"romance", "romantic"},
		"romance":  {"love"},
		"scary":    {"horror", "thriller"},
		"boss":     {"ceo", "president"},
		"rich":     {"wealthy", "billionaire"},
		"revenge":  {"payback"},
		"office":   {"workplace"},
		"ancient":  {"costume", "historical"},
		"school":   {"campus", "youth"},
		"mystery":  {"suspense", "detective"},
		"marriage": {"wedding", "married"},
	}
}

// DefaultCategoryBonuses 内置类目加成规则。
func DefaultCategoryBonuses(bonus float64) []CategoryBonusRule {
	if bonus <= 0 {
		bonus = 0.12
	}
	return []CategoryBonusRule{
		{Terms: []string{"funny", "comedy", "hilarious", "humor"}, Categories: []string{"comedy"}, Bonus: bonus},
		{Terms: []string{"love", "romance", "romantic", "crush"}, Categories: []string{"romance", "love"}, Bonus: bonus},
		{Terms: []string{"mystery", "suspense", "detective", "crime"}, Categories: []string{"mystery", "suspense", "crime"}, Bonus: bonus},
		{Terms: []string{"urban", "city", "office", "workplace"}, Categories: []string{"urban", "city"}, Bonus: bonus},
		{Terms: []string{"costume", "ancient", "historical", "palace"}, Categories: []string{"costume", "historical", "ancient"}, Bonus: bonus},
		{Terms: []string{"youth", "school", "campus", "teen"}, Categories: []string{"youth", "campus", "school"}, Bonus: bonus},
	}
}

// TokenizeQuery 查询分词：小写化，仅保留 [a-z0-9-+] 与空格，丢弃单字符词，
// 经同义词表扩展后按首次出现去重。
func TokenizeQuery(query string, synonyms map[string][]string) []string {
	lowered := strings.ToLower(query)
	var sb strings.Builder
	sb.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '+', r == ' ':
			sb.WriteRune(r)
		default:
			sb.WriteByte(' ')
		}
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	add := func(tok string) {
		if len(tok) <= 1 {
			return
		}
		if _, dup := seen[tok]; dup {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	for _, tok := range strings.Fields(sb.String()) {
		add(tok)
		for _, syn := range synonyms[tok] {
			add(syn)
		}
	}
	return out
}

// dramaCandidate 剧目级候选。
type dramaCandidate struct {
	Vec  float32
	Meta DramaRecord
}

// hybridRank 剧目级混合排序：向量相似度与标签词面重合度按 alpha 加权融合，
// 再叠加类目加成。词面约束过滤导致存活者不足 finalTopK 时，放弃词面信号，
// 对全部原始候选退化为纯向量排序。
func (e *Engine) hybridRank(ctx context.Context, query string, finalTopK int) ([]RankedItem, error) {
	if !e.Enabled() {
		return nil, ErrIndexUnavailable
	}

	vecs, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, ErrIndexUnavailable
	}

	fetch := e.params.VecTopK
	if 3*finalTopK > fetch {
		fetch = 3 * finalTopK
	}

	collection := e.snap.Manifest.DramaCollection
	start := time.Now()
	hits, err := e.store.Search(ctx, collection, vecs[0], fetch)
	metrics.MilvusSearchDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MilvusSearchTotal.WithLabelValues(collection, "error").Inc()
		return nil, err
	}
	metrics.MilvusSearchTotal.WithLabelValues(collection, "success").Inc()

	candidates := make([]dramaCandidate, 0, len(hits))
	for _, h := range hits {
		if h.RowID < 0 || int(h.RowID) >= len(e.snap.Dramas) {
			continue
		}
		candidates = append(candidates, dramaCandidate{Vec: h.Score, Meta: e.snap.Dramas[h.RowID]})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	tokens := TokenizeQuery(query, e.synonyms)

	type scored struct {
		cand    dramaCandidate
		fused   float64
		tagHits int
		bonus   float64
	}

	survivors := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		tagHits := countTagHits(tokens, c.Meta.Tags)
		if e.params.MinTagHits > 0 && tagHits < e.params.MinTagHits {
			continue
		}
		tagScore := float64(tagHits) / float64(maxInt(1, len(tokens)))
		bonus := categoryBonus(tokens, c.Meta.Category, e.bonuses)
		fused := e.params.Alpha*float64(c.Vec) + (1-e.params.Alpha)*tagScore + bonus
		survivors = append(survivors, scored{cand: c, fused: fused, tagHits: tagHits, bonus: bonus})
	}

	// 词面约束把候选滤得太狠时，整体退回纯向量排序
	if len(survivors) < finalTopK {
		survivors = survivors[:0]
		for _, c := range candidates {
			survivors = append(survivors, scored{cand: c, fused: float64(c.Vec)})
		}
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].fused > survivors[j].fused
	})
	if len(survivors) > finalTopK {
		survivors = survivors[:finalTopK]
	}

	items := make([]RankedItem, 0, len(survivors))
	for _, s := range survivors {
		items = append(items, RankedItem{
			DramaID:  s.cand.Meta.DramaID,
			Title:    s.cand.Meta.Title,
			Category: s.cand.Meta.Category,
			Snippet:  truncateRunes(strings.Join(s.cand.Meta.Tags, ", "), e.params.TagSnippetMaxChars),
			// 对外得分只含向量相似度与类目加成，词面项仅参与内部排序
			Score:   float64(s.cand.Vec) + s.bonus,
			TagHits: s.tagHits,
		})
	}
	return items, nil
}

// countTagHits 统计查询词在候选标签中的命中数。
// 标签可能是二元词组，按整体与组成词双重匹配。
func countTagHits(tokens []string, tags []string) int {
	if len(tokens) == 0 || len(tags) == 0 {
		return 0
	}
	words := make(map[string]struct{}, len(tags)*2)
	for _, tag := range tags {
		words[tag] = struct{}{}
		for _, w := range strings.Fields(tag) {
			words[w] = struct{}{}
		}
	}
	hits := 0
	for _, tok := range tokens {
		if _, ok := words[tok]; ok {
			hits++
		}
	}
	return hits
}

// categoryBonus 按规则表累加类目加成。
func categoryBonus(tokens []string, category string, rules []CategoryBonusRule) float64 {
	if category == "" || len(tokens) == 0 {
		return 0
	}
	cat := strings.ToLower(category)
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	total := 0.0
	for _, rule := range rules {
		termHit := false
		for _, t := range rule.Terms {
			if _, ok := tokenSet[t]; ok {
				termHit = true
				break
			}
		}
		if !termHit {
			continue
		}
		for _, c := range rule.Categories {
			if strings.Contains(cat, c) {
				total += rule.Bonus
				break
			}
		}
	}
	return total
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
