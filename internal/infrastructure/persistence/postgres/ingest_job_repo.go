package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Be1newinner/ask-guruji/internal/domain/entity"
)

// IngestJobRepository 摄取任务仓储实现
type IngestJobRepository struct {
	client *Client
}

// NewIngestJobRepository 创建摄取任务仓储
func NewIngestJobRepository(client *Client) *IngestJobRepository {
	return &IngestJobRepository{client: client}
}

// Create 创建摄取任务
func (r *IngestJobRepository) Create(ctx context.Context, job *entity.IngestJob) error {
	ctx, span := tracer.Start(ctx, "postgres.IngestJobRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create ingest job: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取摄取任务
func (r *IngestJobRepository) GetByID(ctx context.Context, id string) (*entity.IngestJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.IngestJobRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var job entity.IngestJob
	if err := db.First(&job, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get ingest job: %w", err)
	}
	return &job, nil
}

// Update 更新摄取任务
func (r *IngestJobRepository) Update(ctx context.Context, job *entity.IngestJob) error {
	ctx, span := tracer.Start(ctx, "postgres.IngestJobRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update ingest job: %w", err)
	}
	return nil
}

// ListRecent 按创建时间倒序列出最近的摄取任务
func (r *IngestJobRepository) ListRecent(ctx context.Context, limit int) ([]*entity.IngestJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.IngestJobRepository.ListRecent")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}

	db := getDB(ctx, r.client.db)
	var jobs []*entity.IngestJob
	if err := db.Order("created_at DESC").Limit(limit).Find(&jobs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list ingest jobs: %w", err)
	}
	return jobs, nil
}
