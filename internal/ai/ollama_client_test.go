package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"entrenai/internal/config"
)

func newTestOllama(t *testing.T, handler http.HandlerFunc) *OllamaClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOllamaClient(&config.Config{
		OllamaURL:            srv.URL,
		OllamaEmbeddingModel: "nomic-embed-text",
		OllamaTextModel:      "llama3.1",
	})
}

func TestOllamaEmbed(t *testing.T) {
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if req.Prompt != "hello world" {
			t.Errorf("unexpected prompt: %q", req.Prompt)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	})

	vec, err := client.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("embed error: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 dims, got %d", len(vec))
	}
}

func TestOllamaEmbedEmptyVector(t *testing.T) {
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{})
	})

	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error for empty embedding")
	}
}

func TestOllamaFormat(t *testing.T) {
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if req.System == "" {
			t.Error("expected system prompt")
		}
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "# Title\n\nbody"})
	})

	md, err := client.Format(context.Background(), "Title body")
	if err != nil {
		t.Fatalf("format error: %v", err)
	}
	if md != "# Title\n\nbody" {
		t.Fatalf("unexpected markdown: %q", md)
	}
}

func TestOllamaServerError(t *testing.T) {
	client := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
