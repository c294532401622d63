package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"short-drama-ai-api/pkg/logger"
	"short-drama-ai-api/pkg/metrics"
)

const lockFileName = ".build.lock"

// BuildParams 一次建库的全部参数。
type BuildParams struct {
	Dir              string
	CollectionPrefix string
	SourceName       string

	ChunkSize     int
	ChunkOverlap  int
	MinChunkChars int
	TagTopK       int

	Model     string
	Dimension int
	BatchSize int

	// MaxRows 限制读取的目录行数，0 表示不限（快速验证用）。
	MaxRows int
}

// Builder 离线建库：目录 → 分片/标签 → 向量 → 版本化集合 + 对齐元数据。
// 产物先写入暂存目录，manifest 最后改名进位，保证在线侧读到的永远是完整的一次建库。
type Builder struct {
	source   CatalogSource
	embedder Embedder
	store    VectorStore
	ranker   TermRanker
	params   BuildParams
}

func NewBuilder(source CatalogSource, embedder Embedder, store VectorStore, ranker TermRanker, params BuildParams) *Builder {
	if params.BatchSize <= 0 {
		params.BatchSize = 64
	}
	return &Builder{
		source:   source,
		embedder: embedder,
		store:    store,
		ranker:   ranker,
		params:   params,
	}
}

// Build 执行一次完整建库并返回发布后的 manifest。
func (b *Builder) Build(ctx context.Context) (*Manifest, error) {
	start := time.Now()

	if err := os.MkdirAll(b.params.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	unlock, err := acquireLock(b.params.Dir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 记录上一次的集合名，发布成功后清理
	var prevManifest *Manifest
	if snap, err := LoadSnapshot(b.params.Dir); err == nil {
		prevManifest = &snap.Manifest
	}

	rows, excluded, err := b.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "catalog loaded", "rows", len(rows), "excluded", excluded, "source", b.params.SourceName)

	buildID := fmt.Sprintf("%s_%s",
		time.Now().UTC().Format("20060102150405"),
		strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	chunkCollection := fmt.Sprintf("%s_chunks_%s", b.params.CollectionPrefix, buildID)
	dramaCollection := fmt.Sprintf("%s_dramas_%s", b.params.CollectionPrefix, buildID)

	// 分片语料：迭代顺序即 row_id
	chunkRecords := b.buildChunkCorpus(rows)
	logger.Info(ctx, "corpus built", "chunks", len(chunkRecords),
		"avg_per_drama", fmt.Sprintf("%.2f", float64(len(chunkRecords))/float64(maxInt(1, len(rows)))))

	dramaTexts := make([]string, len(rows))
	for i, r := range rows {
		dramaTexts[i] = dramaText(r)
	}

	// 两级索引的向量化与写入互不依赖，并行执行
	var dramaRecords []DramaRecord
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		texts := make([]string, len(chunkRecords))
		for i, c := range chunkRecords {
			texts[i] = c.Chunk
		}
		vectors, err := b.embedBatch(gctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
		return b.insertCollection(gctx, chunkCollection, vectors)
	})

	g.Go(func() error {
		tags, err := ExtractTags(b.ranker, dramaTexts, b.params.TagTopK)
		if err != nil {
			return fmt.Errorf("extract tags: %w", err)
		}
		dramaRecords = make([]DramaRecord, len(rows))
		for i, r := range rows {
			dramaRecords[i] = DramaRecord{
				DramaID:  r.ID,
				Title:    r.Title,
				Category: r.Category,
				Tags:     tags[i],
			}
		}
		vectors, err := b.embedBatch(gctx, dramaTexts)
		if err != nil {
			return fmt.Errorf("embed dramas: %w", err)
		}
		return b.insertCollection(gctx, dramaCollection, vectors)
	})

	if err := g.Wait(); err != nil {
		// 建到一半的集合不可留存
		_ = b.store.DropCollection(ctx, chunkCollection)
		_ = b.store.DropCollection(ctx, dramaCollection)
		metrics.IndexBuildTotal.WithLabelValues(b.params.SourceName, "error").Inc()
		return nil, err
	}

	elapsed := time.Since(start)
	manifest := Manifest{
		BuildID:         buildID,
		ChunkCollection: chunkCollection,
		DramaCollection: dramaCollection,
		Source:          b.params.SourceName,
		Rows:            len(rows),
		Excluded:        excluded,
		Chunks:          len(chunkRecords),
		Dimension:       b.params.Dimension,
		Model:           b.params.Model,
		ChunkSize:       b.params.ChunkSize,
		ChunkOverlap:    b.params.ChunkOverlap,
		MinChunkChars:   b.params.MinChunkChars,
		TagTopK:         b.params.TagTopK,
		BuiltAt:         time.Now().UTC().Format(time.RFC3339),
		ElapsedSec:      float64(elapsed.Milliseconds()) / 1000,
		AvgChunkChars:   avgChunkChars(chunkRecords),
	}

	if err := b.publish(manifest, chunkRecords, dramaRecords); err != nil {
		_ = b.store.DropCollection(ctx, chunkCollection)
		_ = b.store.DropCollection(ctx, dramaCollection)
		metrics.IndexBuildTotal.WithLabelValues(b.params.SourceName, "error").Inc()
		return nil, err
	}

	// 旧集合此刻不再被任何 manifest 引用
	if prevManifest != nil {
		if err := b.store.DropCollection(ctx, prevManifest.ChunkCollection); err != nil {
			logger.Warn(ctx, "drop previous chunk collection failed", "collection", prevManifest.ChunkCollection, "error", err.Error())
		}
		if err := b.store.DropCollection(ctx, prevManifest.DramaCollection); err != nil {
			logger.Warn(ctx, "drop previous drama collection failed", "collection", prevManifest.DramaCollection, "error", err.Error())
		}
	}

	metrics.IndexBuildTotal.WithLabelValues(b.params.SourceName, "success").Inc()
	metrics.IndexBuildDuration.WithLabelValues(b.params.SourceName).Observe(elapsed.Seconds())
	metrics.IndexChunksBuilt.Set(float64(len(chunkRecords)))

	return &manifest, nil
}

// loadCatalog 读取并清洗目录：缺 id 或空标题的行整体剔除并计数。
func (b *Builder) loadCatalog(ctx context.Context) ([]CatalogRow, int, error) {
	raw, err := b.source.ListAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load catalog: %w", err)
	}
	if b.params.MaxRows > 0 && len(raw) > b.params.MaxRows {
		raw = raw[:b.params.MaxRows]
	}

	rows := make([]CatalogRow, 0, len(raw))
	excluded := 0
	for _, r := range raw {
		r.Title = normalizeText(r.Title)
		r.Description = normalizeText(r.Description)
		r.Category = normalizeText(r.Category)
		if r.ID <= 0 || r.Title == "" {
			excluded++
			continue
		}
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil, excluded, ErrEmptyCatalog
	}
	return rows, excluded, nil
}

// buildChunkCorpus 逐剧目分片。全部分片过短时回退为单条标题分片。
func (b *Builder) buildChunkCorpus(rows []CatalogRow) []ChunkRecord {
	out := make([]ChunkRecord, 0, len(rows)*2)
	for _, r := range rows {
		chunks := ChunkSentences(dramaText(r), b.params.ChunkSize, b.params.ChunkOverlap)

		kept := chunks[:0]
		for _, c := range chunks {
			if runeLen(c) >= b.params.MinChunkChars {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			kept = []string{r.Title}
		}

		for _, c := range kept {
			out = append(out, ChunkRecord{
				DramaID:  r.ID,
				Title:    r.Title,
				Category: r.Category,
				Chunk:    c,
			})
		}
	}
	return out
}

func dramaText(r CatalogRow) string {
	return strings.TrimSpace(r.Title + ". " + r.Description)
}

func (b *Builder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.params.BatchSize {
		end := start + b.params.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := b.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embedding count mismatch: want %d got %d", end-start, len(vecs))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// insertCollection 建集合并按稠密 row_id（0 起）写入向量。
func (b *Builder) insertCollection(ctx context.Context, name string, vectors [][]float32) error {
	if err := b.store.EnsureCollection(ctx, name, b.params.Dimension); err != nil {
		return fmt.Errorf("ensure collection %s: %w", name, err)
	}
	rowIDs := make([]int64, len(vectors))
	for i := range rowIDs {
		rowIDs[i] = int64(i)
	}
	if err := b.store.Insert(ctx, name, rowIDs, vectors); err != nil {
		return fmt.Errorf("insert into %s: %w", name, err)
	}
	return b.store.Load(ctx, name)
}

// publish 原子发布：元数据写入暂存目录，全部落盘后依次改名，manifest 最后。
func (b *Builder) publish(m Manifest, chunks []ChunkRecord, dramas []DramaRecord) error {
	staging := filepath.Join(b.params.Dir, ".staging-"+m.BuildID)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := writeJSONLines(filepath.Join(staging, chunkMetaFile), chunks); err != nil {
		return fmt.Errorf("write chunk metadata: %w", err)
	}
	if err := writeJSONLines(filepath.Join(staging, dramaMetaFile), dramas); err != nil {
		return fmt.Errorf("write drama metadata: %w", err)
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(staging, manifestFile), raw, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	for _, name := range []string{chunkMetaFile, dramaMetaFile, manifestFile} {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(b.params.Dir, name)); err != nil {
			return fmt.Errorf("publish %s: %w", name, err)
		}
	}
	return nil
}

func writeJSONLines[T any](path string, records []T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return err
		}
	}
	return f.Sync()
}

// acquireLock 以 O_CREATE|O_EXCL 建锁文件实现单写者。
func acquireLock(dir string) (func(), error) {
	path := filepath.Join(dir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrBuildLocked
		}
		return nil, fmt.Errorf("acquire build lock: %w", err)
	}
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
	_ = f.Close()
	return func() { _ = os.Remove(path) }, nil
}

func avgChunkChars(chunks []ChunkRecord) float64 {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, c := range chunks {
		total += runeLen(c.Chunk)
	}
	return float64(total) / float64(len(chunks))
}
