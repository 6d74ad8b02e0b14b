// Package embedding 提供 Embedding 服务客户端
package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/Be1newinner/ask-guruji/internal/application/knowledge"
	"github.com/Be1newinner/ask-guruji/internal/config"
	"github.com/Be1newinner/ask-guruji/pkg/metrics"
)

// Client 包装 eino Embedder，附加维度校验、配额识别与指标上报。
// 实现 knowledge.Embedder。
type Client struct {
	embedder  embedding.Embedder
	model     string
	dimension int
}

func NewClient(embedder embedding.Embedder, cfg *config.EmbeddingConfig) *Client {
	return &Client{
		embedder:  embedder,
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}
}

// EmbedOne 嵌入单条文本
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBulk(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBulk 嵌入一批文本，结果与输入一一对应
func (c *Client) EmbedBulk(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	metrics.EmbeddingBatchSize.Observe(float64(len(texts)))

	v64, err := c.embedder.EmbedStrings(ctx, texts)
	metrics.EmbeddingCallDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())
	if err != nil {
		if isQuotaExhausted(err) {
			metrics.EmbeddingCallTotal.WithLabelValues("quota").Inc()
			return nil, &knowledge.QuotaError{Provider: "openai", Err: err}
		}
		metrics.EmbeddingCallTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(v64) != len(texts) {
		metrics.EmbeddingCallTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(v64))
	}

	out := make([][]float32, 0, len(v64))
	for i, vec := range v64 {
		if c.dimension > 0 && len(vec) != c.dimension {
			metrics.EmbeddingCallTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(vec), c.dimension)
		}
		f32 := make([]float32, 0, len(vec))
		for _, x := range vec {
			f32 = append(f32, float32(x))
		}
		out = append(out, f32)
	}

	metrics.EmbeddingCallTotal.WithLabelValues("ok").Inc()
	return out, nil
}

// isQuotaExhausted 识别提供商的配额/限流类错误。
// OpenAI 兼容端点没有统一的错误类型，按状态码与关键字匹配。
func isQuotaExhausted(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "quota", "rate limit", "rate_limit", "too many requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
