package retrieval

import (
	"context"
	"time"

	"short-drama-ai-api/pkg/logger"
	"short-drama-ai-api/pkg/metrics"
)

// Service 场景路由层：把一次检索请求分派到分片检索或剧目级混合排序。
// 无状态，逐请求工作。
type Service struct {
	engine *Engine
}

func NewService(engine *Engine) *Service {
	return &Service{engine: engine}
}

// Enabled 指示底层索引是否可用。
func (s *Service) Enabled() bool {
	return s != nil && s.engine.Enabled()
}

// Snapshot 透出当前索引快照（健康检查用）。
func (s *Service) Snapshot() *Snapshot {
	if s == nil {
		return nil
	}
	return s.engine.Snapshot()
}

// Ask 执行一次检索。输入已由传输层校验。
//
// qa 且指定剧目：分片检索 + 剧目过滤；过滤后为空则放弃限定，
// 以 2 倍过采样做一次无过滤的兜底检索。其余场景走剧目级混合排序。
func (s *Service) Ask(ctx context.Context, in AskInput) (*AskResult, error) {
	if !s.Enabled() {
		return nil, ErrIndexUnavailable
	}
	topK := in.TopK
	if topK <= 0 {
		topK = s.engine.params.TopKDefault
	}

	start := time.Now()
	defer func() {
		metrics.AskDuration.WithLabelValues(string(in.Scene)).Observe(time.Since(start).Seconds())
	}()

	if in.Scene == SceneQA && in.DramaID > 0 {
		items, err := s.askWithinDrama(ctx, in.Question, in.DramaID, topK)
		if err != nil {
			return nil, err
		}
		return &AskResult{Items: items}, nil
	}

	items, err := s.engine.hybridRank(ctx, in.Question, topK)
	if err != nil {
		return nil, err
	}
	return &AskResult{Items: items}, nil
}

func (s *Service) askWithinDrama(ctx context.Context, question string, dramaID int64, topK int) ([]RankedItem, error) {
	hits, err := s.engine.searchChunks(ctx, question, topK, s.engine.params.DedupeOverfetch)
	if err != nil {
		return nil, err
	}

	filtered := filterByDrama(hits, dramaID)
	if len(filtered) == 0 {
		// 指定剧目没有命中：放弃限定，兜底一次无过滤检索
		logger.Debug(ctx, "qa drama filter empty, falling back to unconstrained search",
			"drama_id", dramaID)
		fallback, err := s.engine.searchChunks(ctx, question, topK, s.engine.params.FallbackOverfetch)
		if err != nil {
			return nil, err
		}
		filtered = fallback
	}

	return s.engine.aggregateToDramas(filtered, true, topK), nil
}
