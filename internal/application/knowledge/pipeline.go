package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const defaultEmbeddingBatch = 100

// Pipeline 文档摄取流水线：清洗 -> 切片 -> 批量嵌入 -> 一次性写入向量库。
type Pipeline struct {
	chunker  *Chunker
	embedder Embedder
	store    VectorStore

	batchSize int
}

func NewPipeline(chunker *Chunker, embedder Embedder, store VectorStore, batchSize int) *Pipeline {
	bs := batchSize
	if bs <= 0 {
		bs = defaultEmbeddingBatch
	}
	return &Pipeline{
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		batchSize: bs,
	}
}

func (p *Pipeline) Enabled() bool {
	return p != nil && p.embedder != nil && p.store != nil
}

// Ingest 摄取一份文档。
// 嵌入按批执行：单批失败记录原因并继续下一批；配额类错误中止剩余批次。
// StartAt 之前的分片直接跳过，失败批次的编号按 StartAt 偏移记录。
// 成功的向量先累积，最后一次 Upsert 落库；写入失败时整次结果计为 0。
func (p *Pipeline) Ingest(ctx context.Context, in IngestInput) (*IngestResult, error) {
	if !p.Enabled() {
		return nil, ErrVectorDisabled
	}
	if err := p.store.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	docID := strings.TrimSpace(in.DocumentID)
	if docID == "" {
		docID = uuid.NewString()
	}

	pages := in.Pages
	if len(pages) == 0 {
		if strings.TrimSpace(in.Text) == "" {
			return nil, fmt.Errorf("document has no extractable text")
		}
		pages = []PageText{{Page: 1, Text: in.Text}}
	}
	totalPages := len(pages)

	chunks := make([]Chunk, 0, totalPages)
	for _, page := range pages {
		chunks = append(chunks, p.chunker.ChunkPage(page)...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document has no extractable text")
	}
	for i := range chunks {
		chunks[i].Seq = i + 1
	}

	result := &IngestResult{
		DocumentID:  docID,
		TotalChunks: len(chunks),
	}

	startAt := in.StartAt
	if startAt < 0 {
		startAt = 0
	}
	if startAt > len(chunks) {
		startAt = len(chunks)
	}

	points := make([]*StoredPoint, 0, len(chunks)-startAt)
	batchIndex := 0
	for start := startAt; start < len(chunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, 0, len(batch))
		for _, c := range batch {
			texts = append(texts, c.Text)
		}

		vectors, err := p.embedder.EmbedBulk(ctx, texts)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("batch %d (%s): %v", startAt+batchIndex, contentPrefix(batch[0].Text), err))
			if IsQuotaError(err) {
				// 已经撞上配额，继续嵌入只会继续失败
				result.QuotaHalted = true
				break
			}
			batchIndex++
			continue
		}

		for i, c := range batch {
			points = append(points, &StoredPoint{
				ID:         uuid.NewString(),
				DocumentID: docID,
				Vector:     vectors[i],
				Text:       c.Text,
				Seq:        c.Seq,
				Page:       c.Page,
				TotalPages: totalPages,
				Meta:       in.Meta,
			})
		}
		batchIndex++
	}

	if len(points) == 0 {
		return result, nil
	}

	if err := p.store.UpsertPoints(ctx, points); err != nil {
		return result, err
	}
	result.IngestedCount = len(points)
	return result, nil
}

// contentPrefix 截取批次首条内容的前 50 个字符用于错误描述。
func contentPrefix(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > 50 {
		return string(r[:50]) + "..."
	}
	return string(r)
}
