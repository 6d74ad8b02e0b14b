package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Be1newinner/ask-guruji/internal/application/knowledge"
	"github.com/Be1newinner/ask-guruji/internal/interfaces/http/dto"
)

func newQueryRouter(t *testing.T, store *fakeStore, chat knowledge.ChatModel) *gin.Engine {
	t.Helper()
	h := NewQueryHandler(newTestEngine(t, store, chat))
	r := gin.New()
	r.POST("/query/retrieve", h.Retrieve)
	r.POST("/query/generate", h.Generate)
	return r
}

func TestQueryRetrieve(t *testing.T) {
	store := &fakeStore{results: []*knowledge.ScoredDocument{
		mustDoc("c1", 0.92),
		mustDoc("c2", 0.81),
	}}
	r := newQueryRouter(t, store, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query/retrieve", strings.NewReader(`{"query":"saturn transit"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp dto.RetrieveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(resp.Documents))
	}
	if resp.Documents[0].ID != "c1" || resp.Documents[0].Score != 0.92 {
		t.Fatalf("unexpected first hit: %+v", resp.Documents[0])
	}
	if resp.Documents[0].Content != "content of c1" {
		t.Fatalf("expected content field, got %+v", resp.Documents[0])
	}
}

func TestQueryRetrieveEmptyResult(t *testing.T) {
	r := newQueryRouter(t, &fakeStore{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query/retrieve", strings.NewReader(`{"query":"unknown topic"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	// 空命中返回空数组而非 null
	if !strings.Contains(w.Body.String(), `"documents":[]`) {
		t.Fatalf("expected empty documents array, got %s", w.Body.String())
	}
}

func TestQueryRetrieveMissingQuery(t *testing.T) {
	r := newQueryRouter(t, &fakeStore{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query/retrieve", strings.NewReader(`{"topK":3}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestQueryRetrieveQuotaExceeded(t *testing.T) {
	emb := &fakeEmbedder{err: &knowledge.QuotaError{Provider: "openai", Err: errors.New("429 too many requests")}}
	h := NewQueryHandler(knowledge.NewEngine(emb, &fakeStore{}, nil))
	r := gin.New()
	r.POST("/query/retrieve", h.Retrieve)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query/retrieve", strings.NewReader(`{"query":"saturn transit"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// 配额耗尽按 429 透出，而不是笼统的 500
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for quota exhaustion, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "embedding quota exhausted") {
		t.Fatalf("expected quota message, got %s", w.Body.String())
	}
}

func TestQueryGenerate(t *testing.T) {
	chat := &fakeChat{reply: "  Saturn stays about 2.5 years in each sign. "}
	r := newQueryRouter(t, &fakeStore{}, chat)

	body := `{
		"query": "how long is a saturn transit",
		"retrievedDocs": [
			{"id": "c1", "content": "Saturn stays 2.5 years in each sign."},
			{"id": "", "content": "orphaned chunk"}
		]
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp dto.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// 回答原样返回，不做修剪
	if resp.Answer != "  Saturn stays about 2.5 years in each sign. " {
		t.Fatalf("expected verbatim answer, got %q", resp.Answer)
	}
	if len(resp.SourceDocuments) != 1 || resp.SourceDocuments[0] != "c1" {
		t.Fatalf("expected empty ids filtered from sources, got %v", resp.SourceDocuments)
	}
}

func TestQueryGenerateWithoutDocs(t *testing.T) {
	r := newQueryRouter(t, &fakeStore{}, &fakeChat{reply: "I cannot tell from the given context."})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query/generate", strings.NewReader(`{"query":"anything"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// 没有召回文档也能生成，上下文为空占位
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp dto.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.SourceDocuments) != 0 {
		t.Fatalf("expected no sources, got %v", resp.SourceDocuments)
	}
}

func TestQueryGenerateMissingQuery(t *testing.T) {
	r := newQueryRouter(t, &fakeStore{}, &fakeChat{reply: "x"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query/generate", strings.NewReader(`{"retrievedDocs":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
