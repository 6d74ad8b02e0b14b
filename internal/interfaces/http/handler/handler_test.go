package handler

import (
	"context"
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Be1newinner/ask-guruji/internal/application/ingest"
	"github.com/Be1newinner/ask-guruji/internal/application/knowledge"
	"github.com/Be1newinner/ask-guruji/internal/application/status"
	"github.com/Be1newinner/ask-guruji/internal/domain/entity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBulk(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBulk(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{0.1, 0.2}
	}
	return vecs, nil
}

type fakeStore struct {
	byID      map[string]*knowledge.ScoredDocument
	results   []*knowledge.ScoredDocument
	upserted  []*knowledge.StoredPoint
	searchErr error
	deleteErr error
}

func (f *fakeStore) EnsureCollection(context.Context) error { return nil }

func (f *fakeStore) UpsertPoints(_ context.Context, points []*knowledge.StoredPoint) error {
	f.upserted = append(f.upserted, points...)
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ []float32, topK int) ([]*knowledge.ScoredDocument, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.results) > topK {
		return f.results[:topK], nil
	}
	return f.results, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*knowledge.ScoredDocument, error) {
	return f.byID[id], nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.byID, id)
	return nil
}

type fakeChat struct {
	reply string
	err   error
}

func (f *fakeChat) Answer(context.Context, string, *knowledge.GenerationParams) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestEngine(t *testing.T, store *fakeStore, chat knowledge.ChatModel) *knowledge.Engine {
	t.Helper()
	return knowledge.NewEngine(&fakeEmbedder{}, store, chat)
}

type memJobRepo struct {
	jobs map[string]*entity.IngestJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[string]*entity.IngestJob{}}
}

func (m *memJobRepo) Create(_ context.Context, job *entity.IngestJob) error {
	m.jobs[job.ID] = job
	return nil
}

func (m *memJobRepo) GetByID(_ context.Context, id string) (*entity.IngestJob, error) {
	return m.jobs[id], nil
}

func (m *memJobRepo) Update(_ context.Context, job *entity.IngestJob) error {
	m.jobs[job.ID] = job
	return nil
}

func (m *memJobRepo) ListRecent(_ context.Context, _ int) ([]*entity.IngestJob, error) {
	out := make([]*entity.IngestJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	return out, nil
}

func newTestIngestService(t *testing.T, store *fakeStore) *ingest.Service {
	t.Helper()
	chunker, err := knowledge.NewChunker(100, 10)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	pipeline := knowledge.NewPipeline(chunker, &fakeEmbedder{}, store, 10)
	return ingest.NewService(pipeline, newMemJobRepo(), status.NewStore(), nil)
}

func mustDoc(id string, score float64) *knowledge.ScoredDocument {
	return &knowledge.ScoredDocument{
		ID:       id,
		Text:     fmt.Sprintf("content of %s", id),
		Score:    score,
		Metadata: map[string]any{"chunkId": float64(1)},
	}
}
