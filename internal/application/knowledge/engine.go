package knowledge

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultTopK = 5
	maxTopK     = 50
)

// Engine 查询引擎：向量召回与基于上下文的回答生成。
type Engine struct {
	embedder Embedder
	store    VectorStore
	chat     ChatModel
}

func NewEngine(embedder Embedder, store VectorStore, chat ChatModel) *Engine {
	return &Engine{
		embedder: embedder,
		store:    store,
		chat:     chat,
	}
}

func (e *Engine) Enabled() bool {
	return e != nil && e.embedder != nil && e.store != nil
}

// Retrieve 对查询做向量召回，按相似度降序返回 topK 个分片。
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) ([]*ScoredDocument, error) {
	if !e.Enabled() {
		return nil, ErrVectorDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	if err := e.store.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	vec, err := e.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.store.Search(ctx, vec, topK)
}

// Generate 基于调用方提供的召回结果生成回答。
// 不在内部重新检索：调用方可以先 Retrieve 再筛选后传入。
// SourceDocuments 原样回传入参文档的 ID（过滤空 ID），不校验模型是否真的引用了它们。
func (e *Engine) Generate(ctx context.Context, query string, docs []*ScoredDocument, params *GenerationParams) (*Answer, error) {
	if e == nil || e.chat == nil {
		return nil, fmt.Errorf("chat model is not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	prompt := BuildAnswerPrompt(docs, query)
	text, err := e.chat.Answer(ctx, prompt, params)
	if err != nil {
		return nil, err
	}

	sources := make([]string, 0, len(docs))
	for _, d := range docs {
		if d == nil || strings.TrimSpace(d.ID) == "" {
			continue
		}
		sources = append(sources, d.ID)
	}

	return &Answer{
		Text:            text,
		SourceDocuments: sources,
	}, nil
}

// GetDocument 按分片 ID 查询。未命中返回 (nil, nil)。
func (e *Engine) GetDocument(ctx context.Context, id string) (*ScoredDocument, error) {
	if e == nil || e.store == nil {
		return nil, ErrVectorDisabled
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("document id is required")
	}
	return e.store.GetByID(ctx, id)
}

// DeleteDocument 按分片 ID 删除。
// 存储侧失败不上抛：返回 Deleted=false 与原因，让调用方可以直接渲染结果。
func (e *Engine) DeleteDocument(ctx context.Context, id string) (*DeleteResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrVectorDisabled
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("document id is required")
	}

	existing, err := e.store.GetByID(ctx, id)
	if err != nil {
		return &DeleteResult{Deleted: false, Message: fmt.Sprintf("failed to look up document: %v", err)}, nil
	}
	if existing == nil {
		return &DeleteResult{Deleted: false, Message: "document not found, nothing to delete"}, nil
	}
	if err := e.store.DeleteByID(ctx, id); err != nil {
		return &DeleteResult{Deleted: false, Message: fmt.Sprintf("failed to delete document: %v", err)}, nil
	}
	return &DeleteResult{Deleted: true, Message: "document deleted"}, nil
}
