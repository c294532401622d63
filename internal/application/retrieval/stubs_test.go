package retrieval

import (
	"context"
	"sync"
)

// stubEmbedder 为每条文本返回固定的单位向量。
type stubEmbedder struct {
	mu    sync.Mutex
	dim   int
	calls int
	err   error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.calls++
	dim := s.dim
	if dim == 0 {
		dim = 3
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, dim)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

// stubStore 内存向量存储：按集合名返回预置命中并记录全部调用。
type stubStore struct {
	mu        sync.Mutex
	hits      map[string][]Hit
	searched  []string
	created   map[string]int
	rowIDs    map[string][]int64
	loaded    []string
	dropped   []string
	searchErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		hits:    make(map[string][]Hit),
		created: make(map[string]int),
		rowIDs:  make(map[string][]int64),
	}
}

func (s *stubStore) EnsureCollection(_ context.Context, name string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created[name] = dimension
	return nil
}

func (s *stubStore) DropCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped = append(s.dropped, name)
	return nil
}

func (s *stubStore) Insert(_ context.Context, name string, rowIDs []int64, _ [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowIDs[name] = append([]int64(nil), rowIDs...)
	return nil
}

func (s *stubStore) Load(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = append(s.loaded, name)
	return nil
}

func (s *stubStore) Search(_ context.Context, name string, _ []float32, topK int) ([]Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	s.searched = append(s.searched, name)
	hits := s.hits[name]
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// stubRanker 为每篇文档返回同一份升序词项表。
type stubRanker struct {
	perDoc  []ScoredTerm
	fitDocs []string
	fitErr  error
}

func (r *stubRanker) Fit(docs []string) error {
	r.fitDocs = docs
	return r.fitErr
}

func (r *stubRanker) TermsFor(i int) []ScoredTerm {
	if i < 0 || i >= len(r.fitDocs) {
		return nil
	}
	return r.perDoc
}

// stubSource 固定行的目录来源。
type stubSource struct {
	rows []CatalogRow
	err  error
}

func (s *stubSource) ListAll(context.Context) ([]CatalogRow, error) {
	return s.rows, s.err
}

func testSnapshot() *Snapshot {
	return &Snapshot{
		Manifest: Manifest{
			BuildID:         "test_build",
			ChunkCollection: "t_chunks_1",
			DramaCollection: "t_dramas_1",
			Chunks:          4,
		},
		Chunks: []ChunkRecord{
			{DramaID: 101, Title: "Laugh Out Loud", Category: "Comedy", Chunk: "The new intern pranks the grumpy boss.\nChaos follows."},
			{DramaID: 101, Title: "Laugh Out Loud", Category: "Comedy", Chunk: "He falls for her anyway."},
			{DramaID: 102, Title: "Dark Alley", Category: "Mystery", Chunk: "A detective hunts a killer through the rain."},
			{DramaID: 103, Title: "Campus Days", Category: "Youth", Chunk: "Two friends chase a scholarship and each other."},
		},
		Dramas: []DramaRecord{
			{DramaID: 101, Title: "Laugh Out Loud", Category: "Comedy", Tags: []string{"office romance", "funny boss", "comedy"}},
			{DramaID: 102, Title: "Dark Alley", Category: "Mystery", Tags: []string{"detective", "crime scene"}},
			{DramaID: 103, Title: "Campus Days", Category: "Youth", Tags: []string{"school life"}},
		},
	}
}

func testEngine(store *stubStore) *Engine {
	return NewEngine(&stubEmbedder{}, store, testSnapshot(), DefaultParams())
}
