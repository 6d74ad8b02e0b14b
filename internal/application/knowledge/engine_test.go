package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeChat struct {
	lastPrompt string
	lastParams *GenerationParams
	reply      string
	err        error
}

func (f *fakeChat) Answer(ctx context.Context, prompt string, params *GenerationParams) (string, error) {
	f.lastPrompt = prompt
	f.lastParams = params
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestEngineRetrieve(t *testing.T) {
	store := &fakeStore{searchResult: []*ScoredDocument{
		{ID: "c1", Text: "saturn transit", Score: 0.91},
		{ID: "c2", Text: "moon sign", Score: 0.72},
	}}
	e := NewEngine(&fakeEmbedder{}, store, nil)

	docs, err := e.Retrieve(context.Background(), "what is a transit", 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if store.lastTopK != 5 {
		t.Fatalf("expected default topK 5, got %d", store.lastTopK)
	}
}

func TestEngineRetrieveTopKBounds(t *testing.T) {
	store := &fakeStore{}
	e := NewEngine(&fakeEmbedder{}, store, nil)

	if _, err := e.Retrieve(context.Background(), "q", 500); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.lastTopK != 50 {
		t.Fatalf("expected topK capped at 50, got %d", store.lastTopK)
	}

	if _, err := e.Retrieve(context.Background(), "q", -1); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.lastTopK != 5 {
		t.Fatalf("expected negative topK to fall back to 5, got %d", store.lastTopK)
	}
}

func TestEngineRetrieveValidation(t *testing.T) {
	e := NewEngine(&fakeEmbedder{}, &fakeStore{}, nil)
	if _, err := e.Retrieve(context.Background(), "   ", 5); err == nil {
		t.Fatal("expected error for empty query")
	}

	disabled := NewEngine(nil, nil, nil)
	if _, err := disabled.Retrieve(context.Background(), "q", 5); !errors.Is(err, ErrVectorDisabled) {
		t.Fatalf("expected ErrVectorDisabled, got %v", err)
	}
}

func TestEngineRetrieveSearchError(t *testing.T) {
	store := &fakeStore{searchErr: errors.New("search timeout")}
	e := NewEngine(&fakeEmbedder{}, store, nil)
	if _, err := e.Retrieve(context.Background(), "q", 5); err == nil {
		t.Fatal("expected search error to propagate")
	}
}

func TestEngineGenerate(t *testing.T) {
	chat := &fakeChat{reply: "Saturn takes about 2.5 years per sign."}
	e := NewEngine(&fakeEmbedder{}, &fakeStore{}, chat)

	docs := []*ScoredDocument{
		{ID: "c1", Text: "Saturn stays 2.5 years in each sign.", Score: 0.9},
		{ID: "", Text: "orphaned chunk", Score: 0.85},
		{ID: "c2", Text: "Jupiter stays one year.", Score: 0.8},
	}
	ans, err := e.Generate(context.Background(), "how long is a saturn transit", docs, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ans.Text != "Saturn takes about 2.5 years per sign." {
		t.Fatalf("expected the model reply verbatim, got %q", ans.Text)
	}
	if len(ans.SourceDocuments) != 2 || ans.SourceDocuments[0] != "c1" || ans.SourceDocuments[1] != "c2" {
		t.Fatalf("expected source ids with empty ids filtered, got %v", ans.SourceDocuments)
	}
	if !strings.Contains(chat.lastPrompt, "Saturn stays 2.5 years in each sign.\n\norphaned chunk") {
		t.Fatalf("prompt should join contents with a blank line, got %q", chat.lastPrompt)
	}
	if !strings.Contains(chat.lastPrompt, "Question: how long is a saturn transit") {
		t.Fatalf("prompt should end with the question, got %q", chat.lastPrompt)
	}
	if strings.Contains(chat.lastPrompt, "0.9") {
		t.Fatal("prompt must not leak scores")
	}
}

func TestEngineGenerateEmptyContext(t *testing.T) {
	chat := &fakeChat{reply: "I do not know."}
	e := NewEngine(&fakeEmbedder{}, &fakeStore{}, chat)

	ans, err := e.Generate(context.Background(), "question", nil, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(chat.lastPrompt, "(no context available)") {
		t.Fatalf("expected placeholder context, got %q", chat.lastPrompt)
	}
	if len(ans.SourceDocuments) != 0 {
		t.Fatalf("expected no sources, got %d", len(ans.SourceDocuments))
	}
}

func TestEngineGenerateValidation(t *testing.T) {
	e := NewEngine(&fakeEmbedder{}, &fakeStore{}, &fakeChat{})
	if _, err := e.Generate(context.Background(), "  ", nil, nil); err == nil {
		t.Fatal("expected error for empty query")
	}

	noChat := NewEngine(&fakeEmbedder{}, &fakeStore{}, nil)
	if _, err := noChat.Generate(context.Background(), "q", nil, nil); err == nil {
		t.Fatal("expected error when chat model is missing")
	}
}

func TestEngineGenerateParamsForwarded(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	e := NewEngine(&fakeEmbedder{}, &fakeStore{}, chat)

	temp := float32(0.2)
	maxTokens := 256
	params := &GenerationParams{Temperature: &temp, MaxTokens: &maxTokens}
	if _, err := e.Generate(context.Background(), "q", nil, params); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if chat.lastParams == nil || chat.lastParams.Temperature == nil || *chat.lastParams.Temperature != 0.2 {
		t.Fatalf("expected generation params forwarded, got %+v", chat.lastParams)
	}
}

func TestEngineGetDocument(t *testing.T) {
	store := &fakeStore{byID: map[string]*ScoredDocument{
		"c1": {ID: "c1", Text: "found"},
	}}
	e := NewEngine(&fakeEmbedder{}, store, nil)

	doc, err := e.GetDocument(context.Background(), "c1")
	if err != nil || doc == nil || doc.ID != "c1" {
		t.Fatalf("expected hit, got doc=%+v err=%v", doc, err)
	}

	doc, err = e.GetDocument(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil for a miss, got %+v", doc)
	}

	if _, err := e.GetDocument(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestEngineDeleteDocument(t *testing.T) {
	store := &fakeStore{byID: map[string]*ScoredDocument{
		"c1": {ID: "c1", Text: "found"},
	}}
	e := NewEngine(&fakeEmbedder{}, store, nil)

	res, err := e.DeleteDocument(context.Background(), "c1")
	if err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if !res.Deleted {
		t.Fatal("expected Deleted=true for an existing document")
	}
	if len(store.deleted) != 1 || store.deleted[0] != "c1" {
		t.Fatalf("expected store delete for c1, got %v", store.deleted)
	}

	res, err = e.DeleteDocument(context.Background(), "missing")
	if err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if res.Deleted {
		t.Fatal("expected Deleted=false for a missing document")
	}
	if len(store.deleted) != 1 {
		t.Fatalf("missing document should not trigger a store delete, got %v", store.deleted)
	}
}

func TestEngineDeleteDocumentStoreError(t *testing.T) {
	store := &fakeStore{
		byID:      map[string]*ScoredDocument{"c1": {ID: "c1"}},
		deleteErr: errors.New("milvus unavailable"),
	}
	e := NewEngine(&fakeEmbedder{}, store, nil)

	res, err := e.DeleteDocument(context.Background(), "c1")
	if err != nil {
		t.Fatalf("store failures should not surface as errors, got %v", err)
	}
	if res.Deleted {
		t.Fatal("expected Deleted=false when the store fails")
	}
	if !strings.Contains(res.Message, "milvus unavailable") {
		t.Fatalf("expected the store reason in the message, got %q", res.Message)
	}
}
