// Package repository 定义领域仓储接口
package repository

import (
	"context"

	"github.com/Be1newinner/ask-guruji/internal/domain/entity"
)

// IngestJobRepository 摄取任务仓储接口
type IngestJobRepository interface {
	Create(ctx context.Context, job *entity.IngestJob) error
	// GetByID 根据 ID 获取任务；未找到返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*entity.IngestJob, error)
	Update(ctx context.Context, job *entity.IngestJob) error
	// ListRecent 按创建时间倒序列出最近的任务
	ListRecent(ctx context.Context, limit int) ([]*entity.IngestJob, error)
}
