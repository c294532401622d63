// Package dto 提供 HTTP 层数据传输对象
package dto

// AskRequest 检索问答请求
type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"topK"`
	Scene    string `json:"scene"`
	DramaID  int64  `json:"dramaId"`
}

// DramaHit 剧目命中
type DramaHit struct {
	DramaID     int64   `json:"dramaId"`
	Title       string  `json:"title"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Snippet     string  `json:"snippet,omitempty"`
	Score       float64 `json:"score"`
	TagHits     int     `json:"tagHits,omitempty"`
}

// AskResponse 检索问答响应
type AskResponse struct {
	Answer        string     `json:"answer"`
	RelatedDramas []DramaHit `json:"relatedDramas"`
}

// HealthzResponse 健康检查响应
type HealthzResponse struct {
	OK       bool   `json:"ok"`
	IndexDir string `json:"indexDir,omitempty"`
	BuildID  string `json:"buildId,omitempty"`
	Chunks   int    `json:"chunks,omitempty"`
	Error    string `json:"error,omitempty"`
}
