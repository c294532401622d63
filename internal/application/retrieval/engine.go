package retrieval

import (
	"context"
	"sort"
	"strings"
	"time"

	"short-drama-ai-api/pkg/metrics"
)

// Params 在线检索与融合排序参数。
type Params struct {
	TopKDefault int

	Alpha      float64
	MinTagHits int
	VecTopK    int

	DedupeOverfetch   int
	FallbackOverfetch int

	CategoryBonus      float64
	SnippetMaxChars    int
	TagSnippetMaxChars int
}

// DefaultParams 返回线上默认参数。
func DefaultParams() Params {
	return Params{
		TopKDefault:        6,
		Alpha:              0.8,
		MinTagHits:         0,
		VecTopK:            30,
		DedupeOverfetch:    3,
		FallbackOverfetch:  2,
		CategoryBonus:      0.12,
		SnippetMaxChars:    400,
		TagSnippetMaxChars: 160,
	}
}

// Engine 在线检索引擎：持有一次建库的快照与向量检索依赖。
// 快照加载失败时以禁用态存在，传输层据此返回 503。
type Engine struct {
	embedder Embedder
	store    VectorStore
	snap     *Snapshot
	params   Params

	synonyms map[string][]string
	bonuses  []CategoryBonusRule
}

// NewEngine 创建检索引擎。snap 可为 nil（索引不可用，Enabled 返回 false）。
func NewEngine(embedder Embedder, store VectorStore, snap *Snapshot, params Params) *Engine {
	if params.TopKDefault <= 0 {
		params = DefaultParams()
	}
	return &Engine{
		embedder: embedder,
		store:    store,
		snap:     snap,
		params:   params,
		synonyms: DefaultSynonyms(),
		bonuses:  DefaultCategoryBonuses(params.CategoryBonus),
	}
}

// WithSynonyms 替换同义词扩展表。
func (e *Engine) WithSynonyms(table map[string][]string) *Engine {
	if table != nil {
		e.synonyms = table
	}
	return e
}

// WithCategoryBonuses 替换类目加成规则。
func (e *Engine) WithCategoryBonuses(rules []CategoryBonusRule) *Engine {
	if rules != nil {
		e.bonuses = rules
	}
	return e
}

// Enabled 指示索引快照是否可用。
func (e *Engine) Enabled() bool {
	return e != nil && e.embedder != nil && e.store != nil && e.snap != nil
}

// Snapshot 返回当前快照（可能为 nil）。
func (e *Engine) Snapshot() *Snapshot {
	if e == nil {
		return nil
	}
	return e.snap
}

// chunkHit 分片命中：向量得分与对齐到 row_id 的元数据。
type chunkHit struct {
	Score float32
	Meta  ChunkRecord
}

// searchChunks 对分片集合做一次向量检索。
// 为抵消后续去重的折损，实际召回 max(overfetch*topK, topK) 条。
func (e *Engine) searchChunks(ctx context.Context, query string, topK, overfetch int) ([]chunkHit, error) {
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

	fetch := overfetch * topK
	if fetch < topK {
		fetch = topK
	}

	collection := e.snap.Manifest.ChunkCollection
	start := time.Now()
	hits, err := e.store.Search(ctx, collection, vecs[0], fetch)
	metrics.MilvusSearchDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MilvusSearchTotal.WithLabelValues(collection, "error").Inc()
		return nil, err
	}
	metrics.MilvusSearchTotal.WithLabelValues(collection, "success").Inc()

	out := make([]chunkHit, 0, len(hits))
	for _, h := range hits {
		if h.RowID < 0 || int(h.RowID) >= len(e.snap.Chunks) {
			continue
		}
		out = append(out, chunkHit{Score: h.Score, Meta: e.snap.Chunks[h.RowID]})
	}
	return out, nil
}

// filterByDrama 仅保留指定剧目的命中；纯元数据过滤，不回查向量库。
func filterByDrama(hits []chunkHit, dramaID int64) []chunkHit {
	out := make([]chunkHit, 0, len(hits))
	for _, h := range hits {
		if h.Meta.DramaID == dramaID {
			out = append(out, h)
		}
	}
	return out
}

// aggregateToDramas 将分片命中聚合为剧目结果。
// dedupe 时同一剧目仅保留相似度最高的分片（相等分取先出现者）；
// 排序为稳定降序，相等分保持分组首次出现的先后。
func (e *Engine) aggregateToDramas(hits []chunkHit, dedupe bool, limit int) []RankedItem {
	items := make([]RankedItem, 0, len(hits))

	if dedupe {
		bestIdx := make(map[int64]int, len(hits))
		for _, h := range hits {
			idx, seen := bestIdx[h.Meta.DramaID]
			if !seen {
				bestIdx[h.Meta.DramaID] = len(items)
				items = append(items, e.chunkToItem(h))
				continue
			}
			if float64(h.Score) > items[idx].Score {
				items[idx] = e.chunkToItem(h)
			}
		}
	} else {
		for _, h := range hits {
			items = append(items, e.chunkToItem(h))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (e *Engine) chunkToItem(h chunkHit) RankedItem {
	snippet := strings.ReplaceAll(h.Meta.Chunk, "\n", " ")
	snippet = truncateRunes(snippet, e.params.SnippetMaxChars)
	return RankedItem{
		DramaID:  h.Meta.DramaID,
		Title:    h.Meta.Title,
		Category: h.Meta.Category,
		Snippet:  snippet,
		Score:    float64(h.Score),
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
