// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"short-drama-ai-api/internal/domain/entity"
)

// DramaRepository 剧目仓储接口
type DramaRepository interface {
	// ListAll 按 ID 升序返回全部剧目
	ListAll(ctx context.Context) ([]*entity.Drama, error)

	// GetByID 根据 ID 获取剧目
	GetByID(ctx context.Context, id int64) (*entity.Drama, error)

	// Count 剧目总数
	Count(ctx context.Context) (int64, error)
}
