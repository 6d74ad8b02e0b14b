// Package ingest 编排文档摄取：解析 -> 流水线 -> 任务记录 -> 事件发布。
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Be1newinner/ask-guruji/internal/application/knowledge"
	"github.com/Be1newinner/ask-guruji/internal/application/status"
	"github.com/Be1newinner/ask-guruji/internal/domain/entity"
	"github.com/Be1newinner/ask-guruji/internal/domain/repository"
	"github.com/Be1newinner/ask-guruji/internal/infrastructure/messaging"
	"github.com/Be1newinner/ask-guruji/pkg/logger"
)

var tracer = otel.Tracer("application.ingest")

// EventPublisher 摄取完成事件发布端口
type EventPublisher interface {
	PublishDocumentIngested(ctx context.Context, event *messaging.DocumentIngestedMessage) (string, error)
}

// Service 摄取编排服务。
// jobs、statusStore、publisher 均可为 nil，缺失时对应环节跳过。
type Service struct {
	pipeline    *knowledge.Pipeline
	jobs        repository.IngestJobRepository
	statusStore *status.Store
	publisher   EventPublisher
}

// NewService 创建摄取编排服务
func NewService(pipeline *knowledge.Pipeline, jobs repository.IngestJobRepository, statusStore *status.Store, publisher EventPublisher) *Service {
	return &Service{
		pipeline:    pipeline,
		jobs:        jobs,
		statusStore: statusStore,
		publisher:   publisher,
	}
}

// Outcome 一次摄取调用的完整结果
type Outcome struct {
	JobID  string
	Result *knowledge.IngestResult
}

// Ingest 执行一次文档摄取并维护任务记录。
// 流水线返回的部分失败（Errors 非空）不视为调用失败；只有流水线
// 本身抛错（集合不可用、落库失败等）才向上返回 error。
func (s *Service) Ingest(ctx context.Context, in knowledge.IngestInput) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "ingest.Ingest",
		trace.WithAttributes(attribute.String("document_id", in.DocumentID)))
	defer span.End()

	job := entity.NewIngestJob(uuid.NewString(), in.DocumentID, in.Meta.FileName)
	s.createJob(ctx, job)

	result, err := s.pipeline.Ingest(ctx, in)
	if err != nil {
		span.RecordError(err)
		msg := err.Error()
		if result != nil {
			job.DocumentID = result.DocumentID
			job.TotalChunks = result.TotalChunks
			job.Errors = append(job.Errors, result.Errors...)
		}
		job.Fail(msg)
		s.updateJob(ctx, job)
		return &Outcome{JobID: job.ID, Result: result}, err
	}

	job.DocumentID = result.DocumentID
	job.Errors = append(job.Errors, result.Errors...)
	if result.QuotaHalted {
		job.TotalChunks = result.TotalChunks
		job.IndexedChunks = result.IngestedCount
		job.Stop("")
	} else {
		job.Complete(result.TotalChunks, result.IngestedCount)
	}
	s.updateJob(ctx, job)

	if result.IngestedCount > 0 {
		if s.statusStore != nil {
			s.statusStore.MarkIndexed()
		}
		s.publishIngested(ctx, job, result)
	}
	return &Outcome{JobID: job.ID, Result: result}, nil
}

// GetJob 查询摄取任务记录。未找到时返回 (nil, nil)。
func (s *Service) GetJob(ctx context.Context, id string) (*entity.IngestJob, error) {
	if s.jobs == nil {
		return nil, fmt.Errorf("ingest job repository not configured")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("job id is required")
	}
	return s.jobs.GetByID(ctx, id)
}

// ListRecentJobs 查询最近的摄取任务
func (s *Service) ListRecentJobs(ctx context.Context, limit int) ([]*entity.IngestJob, error) {
	if s.jobs == nil {
		return nil, fmt.Errorf("ingest job repository not configured")
	}
	return s.jobs.ListRecent(ctx, limit)
}

func (s *Service) createJob(ctx context.Context, job *entity.IngestJob) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		// 任务记录是旁路，不因它阻断摄取
		logger.Warn(ctx, "failed to create ingest job record", "job_id", job.ID, "error", err)
	}
}

func (s *Service) updateJob(ctx context.Context, job *entity.IngestJob) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		logger.Warn(ctx, "failed to update ingest job record", "job_id", job.ID, "error", err)
	}
}

func (s *Service) publishIngested(ctx context.Context, job *entity.IngestJob, result *knowledge.IngestResult) {
	if s.publisher == nil {
		return
	}
	_, err := s.publisher.PublishDocumentIngested(ctx, &messaging.DocumentIngestedMessage{
		JobID:         job.ID,
		DocumentID:    result.DocumentID,
		FileName:      job.FileName,
		TotalChunks:   result.TotalChunks,
		IndexedChunks: result.IngestedCount,
		Status:        string(job.Status),
	})
	if err != nil {
		logger.Warn(ctx, "failed to publish document ingested event", "job_id", job.ID, "error", err)
	}
}
