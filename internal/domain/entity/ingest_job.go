// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/lib/pq"
)

// IngestStatus 摄取任务状态
type IngestStatus string

const (
	IngestStatusProcessing IngestStatus = "processing"
	IngestStatusCompleted  IngestStatus = "completed"
	IngestStatusStopped    IngestStatus = "stopped"
	IngestStatusFailed     IngestStatus = "failed"
)

// IngestJob 文档摄取任务记录
type IngestJob struct {
	ID         string `json:"id" gorm:"primaryKey"`
	DocumentID string `json:"document_id" gorm:"index"`
	FileName   string `json:"file_name,omitempty"`

	Status IngestStatus `json:"status"`

	TotalChunks   int `json:"total_chunks"`
	IndexedChunks int `json:"indexed_chunks"`

	// Errors 摄取过程中记录的错误消息（嵌入批次失败等）
	Errors pq.StringArray `json:"errors,omitempty" gorm:"type:text[]"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewIngestJob 创建新的摄取任务
func NewIngestJob(id, documentID, fileName string) *IngestJob {
	return &IngestJob{
		ID:         id,
		DocumentID: documentID,
		FileName:   fileName,
		Status:     IngestStatusProcessing,
		CreatedAt:  time.Now(),
	}
}

// Complete 标记任务完成并记录分片统计
func (j *IngestJob) Complete(totalChunks, indexedChunks int) {
	now := time.Now()
	j.Status = IngestStatusCompleted
	j.TotalChunks = totalChunks
	j.IndexedChunks = indexedChunks
	j.CompletedAt = &now
}

// Stop 标记任务被配额/限流中止
func (j *IngestJob) Stop(reason string) {
	now := time.Now()
	j.Status = IngestStatusStopped
	j.CompletedAt = &now
	if reason != "" {
		j.Errors = append(j.Errors, reason)
	}
}

// Fail 标记任务失败
func (j *IngestJob) Fail(reason string) {
	now := time.Now()
	j.Status = IngestStatusFailed
	j.CompletedAt = &now
	if reason != "" {
		j.Errors = append(j.Errors, reason)
	}
}

// TableName 指定表名
func (IngestJob) TableName() string {
	return "ingest_jobs"
}
