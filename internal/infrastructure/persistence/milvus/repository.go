// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"short-drama-ai-api/internal/application/retrieval"
)

// Repository 向量存储仓储，实现应用层 VectorStore port。
// 集合名由调用方传入（带建库版本号），本层不做命名决策。
type Repository struct {
	client *Client
}

// NewRepository 创建向量存储仓储
func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}

var _ retrieval.VectorStore = (*Repository)(nil)

// EnsureCollection 创建集合与 HNSW/COSINE 索引；集合已存在时幂等返回。
func (r *Repository) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.EnsureCollection",
		trace.WithAttributes(attribute.String("collection", name)))
	defer span.End()

	has, err := r.client.milvus.HasCollection(ctx, name)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		return nil
	}

	if err := r.client.milvus.CreateCollection(ctx, VectorCollectionSchema(name, dimension), entity.DefaultShardNumber); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to build index params: %w", err)
	}
	if err := r.client.milvus.CreateIndex(ctx, name, fieldVector, idx, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// DropCollection 删除集合；不存在时静默返回。
func (r *Repository) DropCollection(ctx context.Context, name string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.DropCollection",
		trace.WithAttributes(attribute.String("collection", name)))
	defer span.End()

	has, err := r.client.milvus.HasCollection(ctx, name)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !has {
		return nil
	}
	if err := r.client.milvus.DropCollection(ctx, name); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// Insert 写入向量，row_id 与向量按位置对齐。
func (r *Repository) Insert(ctx context.Context, name string, rowIDs []int64, vectors [][]float32) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	if len(rowIDs) != len(vectors) {
		return fmt.Errorf("row ids and vectors length mismatch: %d vs %d", len(rowIDs), len(vectors))
	}
	if len(rowIDs) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "milvus.Insert",
		trace.WithAttributes(
			attribute.String("collection", name),
			attribute.Int("rows", len(rowIDs)),
		))
	defer span.End()

	dim := len(vectors[0])
	idCol := entity.NewColumnInt64(fieldRowID, rowIDs)
	vecCol := entity.NewColumnFloatVector(fieldVector, dim, vectors)

	if _, err := r.client.milvus.Insert(ctx, name, "", idCol, vecCol); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert vectors: %w", err)
	}
	if err := r.client.milvus.Flush(ctx, name, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	return nil
}

// Load 加载集合到内存，检索前必须调用。
func (r *Repository) Load(ctx context.Context, name string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Load",
		trace.WithAttributes(attribute.String("collection", name)))
	defer span.End()

	if err := r.client.milvus.LoadCollection(ctx, name, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to load collection: %w", err)
	}
	return nil
}

// Search 按余弦相似度检索，结果相似度降序。
func (r *Repository) Search(ctx context.Context, name string, vector []float32, topK int) ([]retrieval.Hit, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(
			attribute.String("collection", name),
			attribute.Int("top_k", topK),
		))
	defer span.End()

	sp, err := entity.NewIndexHNSWSearchParam(r.client.config.SearchEf)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := r.client.milvus.Search(ctx,
		name,
		nil,
		"",
		[]string{fieldRowID},
		[]entity.Vector{entity.FloatVector(vector)},
		fieldVector,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var hits []retrieval.Hit
	for _, result := range results {
		ids, ok := result.IDs.(*entity.ColumnInt64)
		if !ok {
			return nil, fmt.Errorf("unexpected primary key column type %T", result.IDs)
		}
		for i := 0; i < result.ResultCount; i++ {
			hits = append(hits, retrieval.Hit{
				RowID: ids.Data()[i],
				Score: result.Scores[i],
			})
		}
	}
	return hits, nil
}
