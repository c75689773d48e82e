package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOllamaProviderAppliesDefaults(t *testing.T) {
	p := NewOllamaProvider(OllamaConfig{})
	if p.config.BaseURL != DefaultOllamaConfig().BaseURL {
		t.Fatalf("expected default base URL, got %q", p.config.BaseURL)
	}
	if p.config.Model != "nomic-embed-code" {
		t.Fatalf("expected default model, got %q", p.config.Model)
	}
	if p.EmbeddingDimension() != 1024 {
		t.Fatalf("expected default dimensions 1024, got %d", p.EmbeddingDimension())
	}
}

func TestOllamaIsAvailableChecksModelPresence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": "nomic-embed-code:latest"}},
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
	if !p.IsAvailable(context.Background()) {
		t.Fatal("expected provider to be available when its model is listed")
	}
}

func TestOllamaIsAvailableFalseWhenModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": "llama3:latest"}},
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
	if p.IsAvailable(context.Background()) {
		t.Fatal("expected provider to be unavailable when its model isn't listed")
	}
}

func TestOllamaIsAvailableFalseOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
	if p.IsAvailable(context.Background()) {
		t.Fatal("expected provider to be unavailable on a server error")
	}
}

func TestOllamaEmbedTextsParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		resp := ollamaEmbedResponse{Embeddings: make([][]float32, len(req.Input))}
		for i := range resp.Embeddings {
			resp.Embeddings[i] = []float32{1, 0, 0}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
	vecs, err := p.embedTexts(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(vecs))
	}
}

func TestOllamaEmbedTextsMismatchedCountIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1, 0}}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
	if _, err := p.embedTexts(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected an error when the response count doesn't match the request")
	}
}

func TestOllamaGenerateEmbeddingsWithConfigEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := ollamaEmbedResponse{Embeddings: make([][]float32, len(req.Input))}
		for i := range resp.Embeddings {
			resp.Embeddings[i] = []float32{1, 0, 0}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
	vecs, metrics, err := p.GenerateEmbeddingsWithConfig(context.Background(), testNodes(3), DefaultBatchConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
	if metrics.TextsProcessed != 3 {
		t.Fatalf("expected metrics to report 3 texts processed, got %d", metrics.TextsProcessed)
	}
}
