package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type fakeEmbedder struct {
	calls  int
	failOn map[int]error
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) EmbedBulk(ctx context.Context, texts []string) ([][]float32, error) {
	idx := f.calls
	f.calls++
	if err := f.failOn[idx]; err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeStore struct {
	ensureErr error

	upserted  []*StoredPoint
	upsertErr error

	searchResult []*ScoredDocument
	searchErr    error
	lastTopK     int

	byID   map[string]*ScoredDocument
	getErr error

	deleted   []string
	deleteErr error
}

func (f *fakeStore) EnsureCollection(ctx context.Context) error { return f.ensureErr }

func (f *fakeStore) UpsertPoints(ctx context.Context, points []*StoredPoint) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, points...)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, vector []float32, topK int) ([]*ScoredDocument, error) {
	f.lastTopK = topK
	return f.searchResult, f.searchErr
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*ScoredDocument, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byID[id], nil
}

func (f *fakeStore) DeleteByID(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestPipeline(t *testing.T, emb *fakeEmbedder, store *fakeStore, batchSize int) *Pipeline {
	t.Helper()
	chunker, err := NewChunker(1000, 200)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	return NewPipeline(chunker, emb, store, batchSize)
}

func fivePages() []PageText {
	pages := make([]PageText, 0, 5)
	for i := 1; i <= 5; i++ {
		pages = append(pages, PageText{Page: i, Text: fmt.Sprintf("content of page %d", i)})
	}
	return pages
}

func TestPipelineIngestAllBatchesSucceed(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &fakeStore{}
	p := newTestPipeline(t, emb, store, 2)

	res, err := p.Ingest(context.Background(), IngestInput{
		DocumentID: "doc-1",
		Meta:       DocumentMeta{FileName: "guide.pdf", Title: "Guide"},
		Pages:      fivePages(),
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.DocumentID != "doc-1" {
		t.Fatalf("expected doc-1, got %s", res.DocumentID)
	}
	if res.TotalChunks != 5 || res.IngestedCount != 5 {
		t.Fatalf("expected 5/5 chunks, got %d/%d", res.IngestedCount, res.TotalChunks)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", res.Errors)
	}
	if emb.calls != 3 {
		t.Fatalf("expected 3 embedding batches for 5 chunks at batch size 2, got %d", emb.calls)
	}
	if len(store.upserted) != 5 {
		t.Fatalf("expected a single upsert with 5 points, got %d", len(store.upserted))
	}
	for i, pt := range store.upserted {
		if pt.ID == "" {
			t.Fatalf("point %d: expected a generated point id", i)
		}
		if pt.DocumentID != "doc-1" {
			t.Fatalf("point %d: expected document id doc-1, got %s", i, pt.DocumentID)
		}
		if pt.Seq != i+1 {
			t.Fatalf("point %d: expected 1-based sequence %d, got %d", i, i+1, pt.Seq)
		}
		if pt.Page != i+1 {
			t.Fatalf("point %d: expected page %d, got %d", i, i+1, pt.Page)
		}
		if pt.TotalPages != 5 {
			t.Fatalf("point %d: expected 5 total pages, got %d", i, pt.TotalPages)
		}
		if pt.Meta.FileName != "guide.pdf" {
			t.Fatalf("point %d: expected file name propagated, got %q", i, pt.Meta.FileName)
		}
	}
}

func TestPipelineIngestQuotaErrorHaltsRemainingBatches(t *testing.T) {
	emb := &fakeEmbedder{failOn: map[int]error{
		1: &QuotaError{Provider: "openai", Err: errors.New("429 too many requests")},
	}}
	store := &fakeStore{}
	p := newTestPipeline(t, emb, store, 2)

	res, err := p.Ingest(context.Background(), IngestInput{DocumentID: "doc-1", Pages: fivePages()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if emb.calls != 2 {
		t.Fatalf("expected embedding to stop after the quota error, got %d calls", emb.calls)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected exactly one error entry, got %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "batch 1") || !strings.Contains(res.Errors[0], "429") {
		t.Fatalf("error entry should name the batch and the cause, got %q", res.Errors[0])
	}
	if res.IngestedCount != 2 {
		t.Fatalf("expected only the first batch ingested, got %d", res.IngestedCount)
	}
	if !res.QuotaHalted {
		t.Fatal("expected the result to mark the quota halt")
	}
}

func TestPipelineIngestTransientErrorSkipsBatchAndContinues(t *testing.T) {
	emb := &fakeEmbedder{failOn: map[int]error{
		1: errors.New("upstream timeout"),
	}}
	store := &fakeStore{}
	p := newTestPipeline(t, emb, store, 2)

	res, err := p.Ingest(context.Background(), IngestInput{DocumentID: "doc-1", Pages: fivePages()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if emb.calls != 3 {
		t.Fatalf("expected all 3 batches attempted, got %d", emb.calls)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "upstream timeout") {
		t.Fatalf("expected one error entry for the failed batch, got %v", res.Errors)
	}
	if res.QuotaHalted {
		t.Fatal("transient failures must not mark a quota halt")
	}
	if res.IngestedCount != 3 {
		t.Fatalf("expected batches 0 and 2 ingested (3 chunks), got %d", res.IngestedCount)
	}
}

func TestPipelineIngestAllBatchesFailSkipsStore(t *testing.T) {
	emb := &fakeEmbedder{failOn: map[int]error{
		0: errors.New("boom"),
		1: errors.New("boom"),
		2: errors.New("boom"),
	}}
	store := &fakeStore{}
	p := newTestPipeline(t, emb, store, 2)

	res, err := p.Ingest(context.Background(), IngestInput{DocumentID: "doc-1", Pages: fivePages()})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.IngestedCount != 0 {
		t.Fatalf("expected nothing ingested, got %d", res.IngestedCount)
	}
	if len(store.upserted) != 0 {
		t.Fatal("store should not be written when every batch failed")
	}
	if len(res.Errors) != 3 {
		t.Fatalf("expected 3 error entries, got %v", res.Errors)
	}
}

func TestPipelineIngestUpsertFailure(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &fakeStore{upsertErr: errors.New("milvus unavailable")}
	p := newTestPipeline(t, emb, store, 2)

	res, err := p.Ingest(context.Background(), IngestInput{DocumentID: "doc-1", Pages: fivePages()})
	if err == nil {
		t.Fatal("expected upsert error to propagate")
	}
	if res == nil || res.IngestedCount != 0 {
		t.Fatalf("expected zero ingested chunks on upsert failure, got %+v", res)
	}
}

func TestPipelineIngestErrorMentionsContentPrefix(t *testing.T) {
	long := strings.Repeat("astrology ", 20)
	emb := &fakeEmbedder{failOn: map[int]error{0: errors.New("boom")}}
	p := newTestPipeline(t, emb, &fakeStore{}, 2)

	res, err := p.Ingest(context.Background(), IngestInput{DocumentID: "doc-1", Text: long})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "astrology") {
		t.Fatalf("error should include a content prefix, got %q", res.Errors[0])
	}
}

func TestPipelineIngestPlainTextAndGeneratedID(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &fakeStore{}
	p := newTestPipeline(t, emb, store, 2)

	res, err := p.Ingest(context.Background(), IngestInput{Text: "plain text body"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.DocumentID == "" {
		t.Fatal("expected a generated document id")
	}
	if res.TotalChunks != 1 || res.IngestedCount != 1 {
		t.Fatalf("expected 1/1 chunks, got %d/%d", res.IngestedCount, res.TotalChunks)
	}
}

func TestPipelineIngestEmptyDocument(t *testing.T) {
	p := newTestPipeline(t, &fakeEmbedder{}, &fakeStore{}, 2)

	if _, err := p.Ingest(context.Background(), IngestInput{Text: "   "}); err == nil {
		t.Fatal("expected error for empty document")
	}
	if _, err := p.Ingest(context.Background(), IngestInput{Pages: []PageText{{Page: 1, Text: " "}}}); err == nil {
		t.Fatal("expected error when no page yields chunks")
	}
}

func TestPipelineIngestStartAtResumesFromChunk(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &fakeStore{}
	p := newTestPipeline(t, emb, store, 2)

	res, err := p.Ingest(context.Background(), IngestInput{
		DocumentID: "doc-1",
		Pages:      fivePages(),
		StartAt:    2,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.TotalChunks != 5 {
		t.Fatalf("total chunk count must stay the full document, got %d", res.TotalChunks)
	}
	if emb.calls != 2 {
		t.Fatalf("expected only the remaining 3 chunks embedded in 2 batches, got %d calls", emb.calls)
	}
	if res.IngestedCount != 3 {
		t.Fatalf("expected 3 resumed chunks ingested, got %d", res.IngestedCount)
	}
	for i, pt := range store.upserted {
		if pt.Seq != i+3 {
			t.Fatalf("point %d: resumed chunks must keep absolute sequence, got %d", i, pt.Seq)
		}
	}
}

func TestPipelineIngestStartAtOffsetsBatchErrors(t *testing.T) {
	emb := &fakeEmbedder{failOn: map[int]error{0: errors.New("boom")}}
	store := &fakeStore{}
	p := newTestPipeline(t, emb, store, 2)

	res, err := p.Ingest(context.Background(), IngestInput{
		DocumentID: "doc-1",
		Pages:      fivePages(),
		StartAt:    2,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "batch 2") {
		t.Fatalf("failed batch must be numbered from the resume offset, got %v", res.Errors)
	}
}

func TestPipelineIngestStartAtPastEndIsNoOp(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &fakeStore{}
	p := newTestPipeline(t, emb, store, 2)

	res, err := p.Ingest(context.Background(), IngestInput{
		DocumentID: "doc-1",
		Pages:      fivePages(),
		StartAt:    99,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if emb.calls != 0 || res.IngestedCount != 0 {
		t.Fatalf("expected nothing embedded past the end, got %d calls / %d ingested", emb.calls, res.IngestedCount)
	}
	if len(store.upserted) != 0 {
		t.Fatal("store should not be written for an exhausted resume offset")
	}
}

func TestPipelineIngestEnsureCollectionFailure(t *testing.T) {
	store := &fakeStore{ensureErr: errors.New("collection create failed")}
	p := newTestPipeline(t, &fakeEmbedder{}, store, 2)

	if _, err := p.Ingest(context.Background(), IngestInput{Text: "body"}); err == nil {
		t.Fatal("expected ensure collection error to propagate")
	}
}
