// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"short-drama-ai-api/internal/application/retrieval"
	"short-drama-ai-api/internal/interfaces/http/dto"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	service  *retrieval.Service
	indexDir string
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(service *retrieval.Service, indexDir string) *HealthHandler {
	return &HealthHandler{service: service, indexDir: indexDir}
}

// Healthz 处理 GET /healthz：报告索引快照状态
func (h *HealthHandler) Healthz(c *gin.Context) {
	if h.service == nil || !h.service.Enabled() {
		c.JSON(200, dto.HealthzResponse{
			OK:       false,
			IndexDir: h.indexDir,
			Error:    "retrieval index not loaded",
		})
		return
	}

	snap := h.service.Snapshot()
	c.JSON(200, dto.HealthzResponse{
		OK:       true,
		IndexDir: h.indexDir,
		BuildID:  snap.Manifest.BuildID,
		Chunks:   snap.Manifest.Chunks,
	})
}

// Live 处理 GET /live：进程存活
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(200, gin.H{"status": "alive"})
}
