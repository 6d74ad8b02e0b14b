// Package dto 提供 HTTP 层数据传输对象
package dto

import "github.com/Be1newinner/ask-guruji/internal/application/knowledge"

// IngestDocument JSON 摄取变体中的单个文档。
// StartAt 用于配额中断后从指定分片续传。
type IngestDocument struct {
	Content  string            `json:"content" binding:"required"`
	Metadata *DocumentMetadata `json:"metadata,omitempty"`
	StartAt  int               `json:"startAt,omitempty" binding:"omitempty,min=0"`
}

// DocumentMetadata 随文档提交的元信息
type DocumentMetadata struct {
	DocumentID string `json:"documentId,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	Keywords   string `json:"keywords,omitempty"`
}

// IngestRequest JSON 摄取请求体
type IngestRequest struct {
	Documents []IngestDocument `json:"documents" binding:"required,min=1,dive"`
}

// IngestResponse 摄取结果
type IngestResponse struct {
	JobID         string   `json:"jobId,omitempty"`
	DocumentID    string   `json:"documentId,omitempty"`
	TotalChunks   int      `json:"totalChunks"`
	IngestedCount int      `json:"ingestedCount"`
	Errors        []string `json:"errors"`
}

// NewIngestResponse 由摄取结果构建响应。Errors 保持空数组而非 null。
func NewIngestResponse(jobID string, res *knowledge.IngestResult) *IngestResponse {
	out := &IngestResponse{
		JobID:  jobID,
		Errors: []string{},
	}
	if res != nil {
		out.DocumentID = res.DocumentID
		out.TotalChunks = res.TotalChunks
		out.IngestedCount = res.IngestedCount
		if len(res.Errors) > 0 {
			out.Errors = res.Errors
		}
	}
	return out
}

// DocumentResponse 单条文档分片
type DocumentResponse struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// DeleteResponse 删除结果
type DeleteResponse struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message"`
}
