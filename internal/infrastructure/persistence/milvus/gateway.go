// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Be1newinner/ask-guruji/internal/application/knowledge"
	"github.com/Be1newinner/ask-guruji/pkg/logger"
	"github.com/Be1newinner/ask-guruji/pkg/metrics"
)

// Gateway 文档向量存储网关，实现 knowledge.VectorStore。
type Gateway struct {
	client     *Client
	collection string
	dim        int
}

// NewGateway 创建文档向量存储网关
func NewGateway(client *Client, collection string, dim int) *Gateway {
	if collection == "" {
		collection = CollectionDocuments
	}
	if dim <= 0 {
		dim = DefaultVectorDimension
	}
	return &Gateway{
		client:     client,
		collection: collection,
		dim:        dim,
	}
}

// chunkMetadata 写入 metadata JSON 列的分片元信息
type chunkMetadata struct {
	ChunkID    int    `json:"chunkId"`
	Page       int    `json:"page"`
	Total      int    `json:"total"`
	FileName   string `json:"fileName,omitempty"`
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	Keywords   string `json:"keywords,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

// EnsureCollection 确保文档集合与索引可用（不存在则创建）。
// 约束：不会做 drop/rebuild 等破坏性操作。
func (g *Gateway) EnsureCollection(ctx context.Context) error {
	if g == nil || g.client == nil || g.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	exists, err := g.client.HasCollection(ctx, g.collection)
	if err != nil {
		return err
	}
	if !exists {
		if err := g.createCollection(ctx); err != nil {
			return err
		}
		// 没有索引的新集合无法检索，建索引失败直接暴露
		if err := g.createIndex(ctx); err != nil {
			logger.Error(ctx, "failed to create index on new collection", err, "collection", g.collection)
			return err
		}
	}

	// 尝试确保集合已加载（若已加载，Milvus 会返回成功）
	return g.client.LoadCollection(ctx, g.collection)
}

func (g *Gateway) createCollection(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.CreateCollection",
		trace.WithAttributes(attribute.String("collection", g.collection)))
	defer span.End()

	schema := DocumentsSchema(g.client.CollectionName(g.collection), g.dim)
	if err := g.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (g *Gateway) createIndex(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.CreateIndex",
		trace.WithAttributes(attribute.String("collection", g.collection)))
	defer span.End()

	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		g.client.cfg.HNSWM,
		g.client.cfg.HNSWEfConstruction,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	collName := g.client.CollectionName(g.collection)
	if err := g.client.milvus.CreateIndex(ctx, collName, "vector", idx, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// UpsertPoints 批量写入文档分片，Flush 后返回以保证可检索。
func (g *Gateway) UpsertPoints(ctx context.Context, points []*knowledge.StoredPoint) error {
	if g == nil || g.client == nil || g.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.UpsertPoints",
		trace.WithAttributes(
			attribute.String("collection", g.collection),
			attribute.Int("count", len(points)),
		))
	defer span.End()

	if len(points) == 0 {
		return nil
	}

	collName := g.client.CollectionName(g.collection)

	ids := make([]string, len(points))
	docIDs := make([]string, len(points))
	vectors := make([][]float32, len(points))
	texts := make([]string, len(points))
	metadatas := make([][]byte, len(points))

	for i, pt := range points {
		ids[i] = pt.ID
		docIDs[i] = pt.DocumentID
		vectors[i] = pt.Vector
		texts[i] = pt.Text

		meta, err := json.Marshal(&chunkMetadata{
			ChunkID:    pt.Seq,
			Page:       pt.Page,
			Total:      pt.TotalPages,
			FileName:   pt.Meta.FileName,
			Title:      pt.Meta.Title,
			Author:     pt.Meta.Author,
			Keywords:   pt.Meta.Keywords,
			CreatedAt:  pt.Meta.CreatedAt,
			ModifiedAt: pt.Meta.ModifiedAt,
		})
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to marshal chunk metadata: %w", err)
		}
		metadatas[i] = meta
	}

	idCol := entity.NewColumnVarChar("id", ids)
	docCol := entity.NewColumnVarChar("document_id", docIDs)
	vectorCol := entity.NewColumnFloatVector("vector", g.dim, vectors)
	textCol := entity.NewColumnVarChar("text_content", texts)
	metaCol := entity.NewColumnJSONBytes("metadata", metadatas)

	if _, err := g.client.milvus.Upsert(ctx, collName, "", idCol, docCol, vectorCol, textCol, metaCol); err != nil {
		metrics.MilvusUpsertPoints.WithLabelValues(g.collection, "error").Add(float64(len(points)))
		span.RecordError(err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	// Flush 确保写入对后续检索可见
	if err := g.client.milvus.Flush(ctx, collName, false); err != nil {
		metrics.MilvusUpsertPoints.WithLabelValues(g.collection, "error").Add(float64(len(points)))
		span.RecordError(err)
		return fmt.Errorf("failed to flush collection: %w", err)
	}

	metrics.MilvusUpsertPoints.WithLabelValues(g.collection, "ok").Add(float64(len(points)))
	return nil
}

// Search 向量检索，按相似度降序返回 topK 条。
func (g *Gateway) Search(ctx context.Context, vector []float32, topK int) ([]*knowledge.ScoredDocument, error) {
	if g == nil || g.client == nil || g.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(
			attribute.String("collection", g.collection),
			attribute.Int("top_k", topK),
		))
	defer span.End()

	sp, err := entity.NewIndexHNSWSearchParam(128)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	collName := g.client.CollectionName(g.collection)
	start := time.Now()
	results, err := g.client.milvus.Search(ctx,
		collName,
		nil,
		"",
		[]string{"id", "document_id", "text_content", "metadata"},
		[]entity.Vector{entity.FloatVector(vector)},
		"vector",
		entity.COSINE,
		topK,
		sp,
	)
	metrics.MilvusSearchDuration.WithLabelValues(g.collection).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MilvusSearchTotal.WithLabelValues(g.collection, "error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	metrics.MilvusSearchTotal.WithLabelValues(g.collection, "ok").Inc()

	docs := make([]*knowledge.ScoredDocument, 0, topK)
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			// COSINE 下 score 即相似度，越大越相关
			doc := &knowledge.ScoredDocument{
				Score: float64(result.Scores[i]),
			}
			if idCol, ok := result.Fields.GetColumn("id").(*entity.ColumnVarChar); ok {
				doc.ID = idCol.Data()[i]
			}
			if docCol, ok := result.Fields.GetColumn("document_id").(*entity.ColumnVarChar); ok {
				doc.DocumentID = docCol.Data()[i]
			}
			if textCol, ok := result.Fields.GetColumn("text_content").(*entity.ColumnVarChar); ok {
				doc.Text = textCol.Data()[i]
			}
			if metaCol, ok := result.Fields.GetColumn("metadata").(*entity.ColumnJSONBytes); ok {
				doc.Metadata = decodeMetadata(metaCol.Data()[i])
			}
			docs = append(docs, doc)
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})
	if len(docs) > topK {
		docs = docs[:topK]
	}

	span.SetAttributes(attribute.Int("result_count", len(docs)))
	return docs, nil
}

// GetByID 按主键查询分片。未命中返回 (nil, nil)。
func (g *Gateway) GetByID(ctx context.Context, id string) (*knowledge.ScoredDocument, error) {
	if g == nil || g.client == nil || g.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.GetByID",
		trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	collName := g.client.CollectionName(g.collection)
	rs, err := g.client.milvus.QueryByPks(ctx,
		collName,
		nil,
		entity.NewColumnVarChar("id", []string{id}),
		[]string{"id", "document_id", "text_content", "metadata"},
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query by id: %w", err)
	}

	doc := &knowledge.ScoredDocument{}
	found := false
	for _, col := range rs {
		if col.Len() == 0 {
			return nil, nil
		}
		switch col.Name() {
		case "id":
			if c, ok := col.(*entity.ColumnVarChar); ok {
				doc.ID = c.Data()[0]
				found = true
			}
		case "document_id":
			if c, ok := col.(*entity.ColumnVarChar); ok {
				doc.DocumentID = c.Data()[0]
			}
		case "text_content":
			if c, ok := col.(*entity.ColumnVarChar); ok {
				doc.Text = c.Data()[0]
			}
		case "metadata":
			if c, ok := col.(*entity.ColumnJSONBytes); ok {
				doc.Metadata = decodeMetadata(c.Data()[0])
			}
		}
	}
	if !found {
		return nil, nil
	}
	return doc, nil
}

// DeleteByID 按主键删除分片。
func (g *Gateway) DeleteByID(ctx context.Context, id string) error {
	if g == nil || g.client == nil || g.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.DeleteByID",
		trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	collName := g.client.CollectionName(g.collection)
	expr := fmt.Sprintf(`id == "%s"`, escapeExprValue(id))
	if err := g.client.milvus.Delete(ctx, collName, "", expr); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete point: %w", err)
	}
	return nil
}

// escapeExprValue 转义拼进布尔表达式字符串字面量的值，防止 id 携带引号破坏表达式。
func escapeExprValue(s string) string {
	return exprEscaper.Replace(s)
}

var exprEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func decodeMetadata(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
