package services

import (
	"context"
	"fmt"
	"strings"

	"entrenai/internal/ai"
)

// Normalizer rewrites raw extracted text into clean markdown through the
// configured AI provider. A normalization failure aborts the whole file: no
// chunk can be produced without normalized text.
type Normalizer struct {
	provider ai.Provider
}

func NewNormalizer(provider ai.Provider) *Normalizer {
	return &Normalizer{provider: provider}
}

func (n *Normalizer) Normalize(ctx context.Context, rawText string) (string, error) {
	markdown, err := n.provider.Format(ctx, rawText)
	if err != nil {
		return "", fmt.Errorf("normalization failed: %w", err)
	}

	markdown = stripCodeFence(strings.TrimSpace(markdown))
	if markdown == "" {
		return "", fmt.Errorf("normalization returned empty text")
	}
	return markdown, nil
}

// stripCodeFence removes a surrounding ``` fence some models wrap their
// output in despite instructions.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	if strings.TrimSpace(lines[len(lines)-1]) != "```" {
		return s
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}
