package retrieval

import "context"

// Embedder 定义应用层对文本向量化服务的最小依赖（port）。
// 返回的向量与输入按位置对齐，且已做 L2 归一化。
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore 定义应用层对向量存储/检索的最小依赖（port）。
// 集合名由调用方传入：建库侧写入带版本号的新集合，检索侧只读 manifest 指定的集合。
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dimension int) error
	DropCollection(ctx context.Context, name string) error
	Insert(ctx context.Context, name string, rowIDs []int64, vectors [][]float32) error
	Load(ctx context.Context, name string) error
	Search(ctx context.Context, name string, vector []float32, topK int) ([]Hit, error)
}

// TermRanker 词项重要性协作者（TF-IDF）。
// Fit 后 TermsFor 返回第 i 篇文档的 (term, weight) 列表，权重升序。
type TermRanker interface {
	Fit(docs []string) error
	TermsFor(docIndex int) []ScoredTerm
}

// ScoredTerm 词项及其权重。
type ScoredTerm struct {
	Term   string
	Weight float64
}

// CatalogSource 剧目目录来源（Postgres 或 CSV）。
type CatalogSource interface {
	ListAll(ctx context.Context) ([]CatalogRow, error)
}

// CatalogRow 目录中的一条剧目记录，未经清洗。
type CatalogRow struct {
	ID          int64
	Title       string
	Description string
	Category    string
}
