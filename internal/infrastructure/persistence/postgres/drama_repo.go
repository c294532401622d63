// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"short-drama-ai-api/internal/application/retrieval"
	"short-drama-ai-api/internal/domain/entity"
	"short-drama-ai-api/internal/domain/repository"
)

// DramaRepository 剧目仓储实现
type DramaRepository struct {
	client *Client
}

// NewDramaRepository 创建剧目仓储
func NewDramaRepository(client *Client) *DramaRepository {
	return &DramaRepository{client: client}
}

var _ repository.DramaRepository = (*DramaRepository)(nil)

// ListAll 按 ID 升序返回全部剧目
func (r *DramaRepository) ListAll(ctx context.Context) ([]*entity.Drama, error) {
	ctx, span := tracer.Start(ctx, "postgres.DramaRepository.ListAll")
	defer span.End()

	var dramas []*entity.Drama
	if err := r.client.db.WithContext(ctx).Order("id ASC").Find(&dramas).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list dramas: %w", err)
	}
	return dramas, nil
}

// GetByID 根据 ID 获取剧目
func (r *DramaRepository) GetByID(ctx context.Context, id int64) (*entity.Drama, error) {
	ctx, span := tracer.Start(ctx, "postgres.DramaRepository.GetByID")
	defer span.End()

	var drama entity.Drama
	if err := r.client.db.WithContext(ctx).First(&drama, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get drama: %w", err)
	}
	return &drama, nil
}

// Count 剧目总数
func (r *DramaRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.DramaRepository.Count")
	defer span.End()

	var count int64
	if err := r.client.db.WithContext(ctx).Model(&entity.Drama{}).Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count dramas: %w", err)
	}
	return count, nil
}

// CatalogSource 把剧目仓储适配为建库的目录来源。
type CatalogSource struct {
	repo repository.DramaRepository
}

// NewCatalogSource 创建目录来源适配器
func NewCatalogSource(repo repository.DramaRepository) *CatalogSource {
	return &CatalogSource{repo: repo}
}

var _ retrieval.CatalogSource = (*CatalogSource)(nil)

// ListAll 读取全部剧目并映射为目录行
func (s *CatalogSource) ListAll(ctx context.Context) ([]retrieval.CatalogRow, error) {
	dramas, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]retrieval.CatalogRow, 0, len(dramas))
	for _, d := range dramas {
		rows = append(rows, retrieval.CatalogRow{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Category:    d.Category,
		})
	}
	return rows, nil
}
