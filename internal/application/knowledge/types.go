package knowledge

// PageText 单页提取出的原始文本。
type PageText struct {
	Page int
	Text string
}

// DocumentMeta 随文档一起写入每个分片的元信息。
type DocumentMeta struct {
	FileName   string
	Title      string
	Author     string
	Keywords   string
	CreatedAt  string
	ModifiedAt string
}

// IngestInput 文档摄取输入。
// Pages 与 Text 二选一：PDF 走 Pages，纯文本走 Text。
type IngestInput struct {
	DocumentID string
	Meta       DocumentMeta

	Pages []PageText
	Text  string

	// StartAt 从第几个分片开始嵌入，之前的分片视为已入库。
	// 用于配额中断后续传，0 表示从头开始。
	StartAt int
}

// IngestResult 摄取结果统计。
type IngestResult struct {
	DocumentID    string
	TotalChunks   int
	IngestedCount int

	// Errors 每个失败批次一条人类可读的原因。
	Errors []string

	// QuotaHalted 表示嵌入配额耗尽，剩余批次被放弃。
	QuotaHalted bool
}

// Chunk 切片后的一段文本。Seq 是文档内从 1 开始的序号。
type Chunk struct {
	Seq  int
	Text string
	Page int
}

// StoredPoint 写入向量库的一条记录。ID 在摄取时随机生成。
type StoredPoint struct {
	ID         string
	DocumentID string
	Vector     []float32
	Text       string

	Seq        int
	Page       int
	TotalPages int
	Meta       DocumentMeta
}

// ScoredDocument 检索命中的一条文档分片。
type ScoredDocument struct {
	ID         string
	DocumentID string
	Text       string
	Score      float64
	Metadata   map[string]any
}

// GenerationParams 生成回答时的可选参数。
type GenerationParams struct {
	Temperature *float32
	MaxTokens   *int
}

// Answer 生成结果：回答文本与其依据的来源分片 ID。
type Answer struct {
	Text            string
	SourceDocuments []string
}

// DeleteResult 删除操作的结果。存储侧失败不抛错，体现在 Deleted/Message 里。
type DeleteResult struct {
	Deleted bool
	Message string
}
