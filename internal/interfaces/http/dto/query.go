// Package dto 提供 HTTP 层数据传输对象
package dto

import "github.com/Be1newinner/ask-guruji/internal/application/knowledge"

// RetrieveRequest 相似检索请求
type RetrieveRequest struct {
	Query string `json:"query" binding:"required,max=5000"`
	TopK  int    `json:"topK,omitempty"`
}

// ScoredDocument 检索命中的一条文档
type ScoredDocument struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// RetrieveResponse 相似检索响应
type RetrieveResponse struct {
	Documents []*ScoredDocument `json:"documents"`
}

// NewRetrieveResponse 由检索结果构建响应。Documents 保持空数组而非 null。
func NewRetrieveResponse(docs []*knowledge.ScoredDocument) *RetrieveResponse {
	out := &RetrieveResponse{Documents: make([]*ScoredDocument, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, &ScoredDocument{
			ID:       d.ID,
			Content:  d.Text,
			Metadata: d.Metadata,
			Score:    d.Score,
		})
	}
	return out
}

// RetrievedDoc 生成请求中携带的检索结果文档
type RetrievedDoc struct {
	ID      string `json:"id"`
	Content string `json:"content" binding:"required"`
}

// GenerationParams 生成参数
type GenerationParams struct {
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty"`
}

// GenerateRequest RAG 生成请求
type GenerateRequest struct {
	Query            string            `json:"query" binding:"required,max=5000"`
	RetrievedDocs    []RetrievedDoc    `json:"retrievedDocs" binding:"dive"`
	GenerationParams *GenerationParams `json:"generationParams,omitempty"`
}

// GenerateResponse RAG 生成响应
type GenerateResponse struct {
	Answer          string   `json:"answer"`
	SourceDocuments []string `json:"sourceDocuments"`
}
