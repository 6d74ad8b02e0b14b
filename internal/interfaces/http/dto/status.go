// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"github.com/Be1newinner/ask-guruji/internal/domain/entity"
)

// StatusResponse 服务状态
type StatusResponse struct {
	Uptime      string `json:"uptime"`
	Status      string `json:"status"`
	LastIndexed string `json:"lastIndexed,omitempty"`
}

// JobResponse 摄取任务记录
type JobResponse struct {
	ID            string   `json:"id"`
	DocumentID    string   `json:"documentId"`
	FileName      string   `json:"fileName,omitempty"`
	Status        string   `json:"status"`
	TotalChunks   int      `json:"totalChunks"`
	IndexedChunks int      `json:"indexedChunks"`
	Errors        []string `json:"errors"`
	CreatedAt     string   `json:"createdAt"`
	CompletedAt   string   `json:"completedAt,omitempty"`
}

// NewJobResponse 由任务实体构建响应
func NewJobResponse(job *entity.IngestJob) *JobResponse {
	out := &JobResponse{
		ID:            job.ID,
		DocumentID:    job.DocumentID,
		FileName:      job.FileName,
		Status:        string(job.Status),
		TotalChunks:   job.TotalChunks,
		IndexedChunks: job.IndexedChunks,
		Errors:        []string{},
		CreatedAt:     job.CreatedAt.UTC().Format(time.RFC3339),
	}
	if len(job.Errors) > 0 {
		out.Errors = job.Errors
	}
	if job.CompletedAt != nil {
		out.CompletedAt = job.CompletedAt.UTC().Format(time.RFC3339)
	}
	return out
}
