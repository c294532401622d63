package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"short-drama-ai-api/internal/interfaces/http/dto"
)

func doHealthz(t *testing.T, h *HealthHandler) dto.HealthzResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/healthz", h.Healthz)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.HealthzResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthzIndexLoaded(t *testing.T) {
	resp := doHealthz(t, NewHealthHandler(enabledService(), "index"))
	assert.True(t, resp.OK)
	assert.Equal(t, "b1", resp.BuildID)
	assert.Equal(t, "index", resp.IndexDir)
	assert.Empty(t, resp.Error)
}

func TestHealthzIndexMissing(t *testing.T) {
	resp := doHealthz(t, NewHealthHandler(disabledService(), "index"))
	assert.False(t, resp.OK)
	assert.Equal(t, "retrieval index not loaded", resp.Error)
	assert.Empty(t, resp.BuildID)
}
