package knowledge

import "context"

// Embedder 定义应用层对嵌入服务的最小依赖（port）。
// 由基础设施层提供具体实现（例如 eino 的 OpenAI embedder）。
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedBulk(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore 定义应用层对向量存储/检索的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	UpsertPoints(ctx context.Context, points []*StoredPoint) error
	Search(ctx context.Context, vector []float32, topK int) ([]*ScoredDocument, error)
	GetByID(ctx context.Context, id string) (*ScoredDocument, error)
	DeleteByID(ctx context.Context, id string) error
}

// ChatModel 定义生成回答所需的最小依赖（port）。
type ChatModel interface {
	Answer(ctx context.Context, prompt string, params *GenerationParams) (string, error)
}
