package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"entrenai/internal/config"
)

// OllamaClient implements Provider against a local Ollama server.
type OllamaClient struct {
	httpClient     *http.Client
	baseURL        string
	embeddingModel string
	textModel      string
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func NewOllamaClient(cfg *config.Config) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // local models can be slow
		},
		baseURL:        cfg.OllamaURL,
		embeddingModel: cfg.OllamaEmbeddingModel,
		textModel:      cfg.OllamaTextModel,
	}
}

func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaEmbedResponse
	if err := c.post(ctx, "/api/embeddings", ollamaEmbedRequest{
		Model:  c.embeddingModel,
		Prompt: text,
	}, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama embed: empty embedding returned")
	}
	return resp.Embedding, nil
}

func (c *OllamaClient) Format(ctx context.Context, text string) (string, error) {
	var resp ollamaGenerateResponse
	if err := c.post(ctx, "/api/generate", ollamaGenerateRequest{
		Model:  c.textModel,
		Prompt: text,
		System: formatSystemPrompt,
		Stream: false,
	}, &resp); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama generate: %s", resp.Error)
	}
	return resp.Response, nil
}

func (c *OllamaClient) Close() error { return nil }

func (c *OllamaClient) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
