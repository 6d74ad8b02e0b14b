package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/Be1newinner/ask-guruji/internal/application/knowledge"
	"github.com/Be1newinner/ask-guruji/internal/config"
)

type fakeEinoEmbedder struct {
	vectors   [][]float64
	err       error
	lastTexts []string
}

func (f *fakeEinoEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	f.lastTexts = texts
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors, nil
}

func newTestClient(inner embedding.Embedder, dimension int) *Client {
	return NewClient(inner, &config.EmbeddingConfig{Model: "text-embedding-3-large", Dimension: dimension})
}

func TestEmbedBulk(t *testing.T) {
	inner := &fakeEinoEmbedder{vectors: [][]float64{{0.1, 0.2}, {0.3, 0.4}}}
	c := newTestClient(inner, 2)

	got, err := c.EmbedBulk(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBulk: %v", err)
	}
	if len(got) != 2 || len(got[0]) != 2 {
		t.Fatalf("unexpected result shape: %v", got)
	}
	if got[1][0] != float32(0.3) {
		t.Fatalf("expected float32 conversion, got %v", got[1][0])
	}
	if len(inner.lastTexts) != 2 {
		t.Fatalf("expected 2 texts forwarded, got %v", inner.lastTexts)
	}
}

func TestEmbedBulkEmptyInput(t *testing.T) {
	c := newTestClient(&fakeEinoEmbedder{}, 2)
	got, err := c.EmbedBulk(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result for empty input, got %v / %v", got, err)
	}
}

func TestEmbedBulkCountMismatch(t *testing.T) {
	inner := &fakeEinoEmbedder{vectors: [][]float64{{0.1, 0.2}}}
	c := newTestClient(inner, 2)
	if _, err := c.EmbedBulk(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error on count mismatch")
	}
}

func TestEmbedBulkDimensionMismatch(t *testing.T) {
	inner := &fakeEinoEmbedder{vectors: [][]float64{{0.1, 0.2, 0.3}}}
	c := newTestClient(inner, 2)
	if _, err := c.EmbedBulk(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error on dimension mismatch")
	}
}

func TestEmbedBulkQuotaClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		quota bool
	}{
		{"http 429", errors.New("request failed: status code 429"), true},
		{"quota message", errors.New("insufficient_quota: you exceeded your current quota"), true},
		{"rate limit message", errors.New("Rate limit reached for requests"), true},
		{"plain failure", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(&fakeEinoEmbedder{err: tt.err}, 2)
			_, err := c.EmbedBulk(context.Background(), []string{"a"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := knowledge.IsQuotaError(err); got != tt.quota {
				t.Fatalf("IsQuotaError = %v, want %v for %v", got, tt.quota, tt.err)
			}
		})
	}
}

func TestEmbedOne(t *testing.T) {
	inner := &fakeEinoEmbedder{vectors: [][]float64{{0.5, 0.6}}}
	c := newTestClient(inner, 2)

	vec, err := c.EmbedOne(context.Background(), "query")
	if err != nil {
		t.Fatalf("EmbedOne: %v", err)
	}
	if len(vec) != 2 || vec[0] != float32(0.5) {
		t.Fatalf("unexpected vector %v", vec)
	}
}
