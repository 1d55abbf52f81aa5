package ai

import (
	"context"
	"fmt"

	"entrenai/internal/config"
)

// Provider is the capability contract the pipeline depends on: embedding
// generation and text formatting. One implementation is selected at
// construction time and injected; the pipeline never branches on provider name.
type Provider interface {
	// Embed returns a fixed-dimension embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Format rewrites raw extracted text into clean markdown.
	Format(ctx context.Context, text string) (string, error)
	Close() error
}

// NewProvider constructs the configured provider implementation.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.AIProvider {
	case "gemini", "":
		return NewGeminiClient(ctx, cfg)
	case "ollama":
		return NewOllamaClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.AIProvider)
	}
}
