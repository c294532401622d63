// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"short-drama-ai-api/internal/application/answer"
	"short-drama-ai-api/internal/application/retrieval"
	"short-drama-ai-api/internal/infrastructure/persistence/redis"
	"short-drama-ai-api/internal/interfaces/http/dto"
	apperrors "short-drama-ai-api/pkg/errors"
	"short-drama-ai-api/pkg/logger"
	"short-drama-ai-api/pkg/metrics"
	"short-drama-ai-api/pkg/tracer"
)

const (
	maxTopK = 50
)

// AskHandler 检索问答处理器
type AskHandler struct {
	service     *retrieval.Service
	cache       *redis.Cache
	askTTL      time.Duration
	topKDefault int
}

// NewAskHandler 创建检索问答处理器。cache 可为 nil（不启用缓存）。
func NewAskHandler(service *retrieval.Service, cache *redis.Cache, askTTL time.Duration, topKDefault int) *AskHandler {
	if topKDefault <= 0 {
		topKDefault = 6
	}
	return &AskHandler{
		service:     service,
		cache:       cache,
		askTTL:      askTTL,
		topKDefault: topKDefault,
	}
}

// Ask 处理 POST /rag/ask
func (h *AskHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body")
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		dto.BadRequest(c, "question must be a non-empty string")
		return
	}

	scene := strings.ToLower(strings.TrimSpace(req.Scene))
	if scene == "" {
		scene = string(retrieval.SceneSearch)
	}
	if !retrieval.ValidScene(scene) {
		dto.BadRequest(c, "scene must be one of: search, recommend, qa")
		return
	}

	topK := req.TopK
	if topK == 0 {
		topK = h.topKDefault
	}
	if topK < 1 || topK > maxTopK {
		dto.BadRequest(c, "topK must be in 1..50")
		return
	}

	if !h.service.Enabled() {
		metrics.AskTotal.WithLabelValues(scene, "unavailable").Inc()
		dto.ServiceUnavailable(c, "retrieval index unavailable")
		return
	}

	ctx := logger.WithContext(c.Request.Context(), logger.SceneKey, scene)
	if req.DramaID > 0 {
		ctx = logger.WithContext(ctx, logger.DramaIDKey, req.DramaID)
	}
	ctx, span := tracer.StartAsk(ctx, scene, topK)
	defer span.End()

	resp, err := h.answer(ctx, req.Question, scene, topK, req.DramaID)
	if err != nil {
		metrics.AskTotal.WithLabelValues(scene, "error").Inc()
		logger.Error(ctx, "ask failed", err, "scene", scene)
		writeAskError(c, err)
		return
	}

	metrics.AskTotal.WithLabelValues(scene, "success").Inc()
	dto.Success(c, resp)
}

// answer 执行检索并组装回答，命中缓存时直接反序列化返回。
func (h *AskHandler) answer(ctx context.Context, question, scene string, topK int, dramaID int64) (*dto.AskResponse, error) {
	if h.cache == nil {
		return h.retrieve(ctx, question, scene, topK, dramaID)
	}

	key := redis.AskCacheKey(question, scene, topK, dramaID)
	raw, err := h.cache.GetOrLoadSafe(ctx, key, h.askTTL, func() (interface{}, error) {
		return h.retrieve(ctx, question, scene, topK, dramaID)
	})
	if err != nil {
		return nil, err
	}

	var resp dto.AskResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (h *AskHandler) retrieve(ctx context.Context, question, scene string, topK int, dramaID int64) (*dto.AskResponse, error) {
	result, err := h.service.Ask(ctx, retrieval.AskInput{
		Question: question,
		Scene:    retrieval.Scene(scene),
		TopK:     topK,
		DramaID:  dramaID,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]dto.DramaHit, 0, len(result.Items))
	for _, it := range result.Items {
		hits = append(hits, dto.DramaHit{
			DramaID:  it.DramaID,
			Title:    it.Title,
			Category: it.Category,
			Snippet:  it.Snippet,
			Score:    it.Score,
			TagHits:  it.TagHits,
		})
	}

	return &dto.AskResponse{
		Answer:        answer.Compose(question, result.Items),
		RelatedDramas: hits,
	}, nil
}

// writeAskError 按错误类别映射 HTTP 状态
func writeAskError(c *gin.Context, err error) {
	if err == retrieval.ErrIndexUnavailable {
		dto.ServiceUnavailable(c, "retrieval index unavailable")
		return
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code == apperrors.CodeUnknown {
		// 未分类错误视为检索链路故障
		dto.BadGateway(c, "retrieval failed")
		return
	}
	dto.Error(c, appErr.HTTPStatus, appErr.Message)
}
