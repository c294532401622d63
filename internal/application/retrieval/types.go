package retrieval

// Scene 检索场景。
type Scene string

const (
	SceneSearch    Scene = "search"
	SceneRecommend Scene = "recommend"
	SceneQA        Scene = "qa"
)

// ValidScene 判断场景是否受支持（传输层入参校验用）。
func ValidScene(s string) bool {
	switch Scene(s) {
	case SceneSearch, SceneRecommend, SceneQA:
		return true
	}
	return false
}

// AskInput 单次检索输入。传输层已完成校验：Question 非空、TopK 在 1..50、
// Scene 为受支持的枚举值；核心不再重复校验。
type AskInput struct {
	Question string
	Scene    Scene
	TopK     int

	// DramaID 仅在 qa 场景有意义；0 表示不限定剧目。
	DramaID int64
}

// RankedItem 排序后的剧目结果。
type RankedItem struct {
	DramaID  int64   `json:"dramaId"`
	Title    string  `json:"title"`
	Category string  `json:"category,omitempty"`
	Snippet  string  `json:"snippet,omitempty"`
	Score    float64 `json:"score"`
	TagHits  int     `json:"tagHits,omitempty"`
}

// AskResult 检索结果。Items 按分数降序。
type AskResult struct {
	Items []RankedItem
}

// Hit 向量检索命中：row_id 与相似度（降序返回）。
type Hit struct {
	RowID int64
	Score float32
}

// ChunkRecord 分片级元数据，与 chunk 集合按行号严格对齐。
type ChunkRecord struct {
	DramaID  int64  `json:"drama_id"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Chunk    string `json:"chunk"`
}

// DramaRecord 剧目级元数据，与 drama 集合按行号严格对齐。
// Tags 为重要性降序的 TF-IDF 标签。
type DramaRecord struct {
	DramaID  int64    `json:"drama_id"`
	Title    string   `json:"title"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags"`
}

// Manifest 一次建库的产物清单与统计信息。在线服务只读取其命名的集合。
type Manifest struct {
	BuildID         string `json:"build_id"`
	ChunkCollection string `json:"chunk_collection"`
	DramaCollection string `json:"drama_collection"`

	Source        string  `json:"source"`
	Rows          int     `json:"rows"`
	Excluded      int     `json:"excluded"`
	Chunks        int     `json:"chunks"`
	Dimension     int     `json:"dimension"`
	Model         string  `json:"model"`
	ChunkSize     int     `json:"chunk_size"`
	ChunkOverlap  int     `json:"chunk_overlap"`
	MinChunkChars int     `json:"min_chunk_chars"`
	TagTopK       int     `json:"tag_topk"`
	BuiltAt       string  `json:"built_at"`
	ElapsedSec    float64 `json:"elapsed_sec"`
	AvgChunkChars float64 `json:"avg_chars_per_chunk"`
}
