package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"entrenai/internal/config"
	"entrenai/internal/logger"
)

// GeminiClient implements Provider on the Google Generative AI API, guarded by
// a circuit breaker and a client-side rate limiter.
type GeminiClient struct {
	client         *genai.Client
	breaker        *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	embeddingModel string
	textModel      string
}

func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// Free-tier default is ~15 RPM; leave headroom.
	rateLimiter := rate.NewLimiter(rate.Limit(10.0/60.0*0.9), 2)

	return &GeminiClient{
		client:         client,
		breaker:        breaker,
		rateLimiter:    rateLimiter,
		embeddingModel: cfg.GeminiEmbeddingModel,
		textModel:      cfg.GeminiTextModel,
	}, nil
}

func (gc *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.embed_content")
	defer span.End()

	span.SetAttributes(
		attribute.String("gemini.model", gc.embeddingModel),
		attribute.Int("gemini.text_chars", len(text)),
	)

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.EmbeddingModel(gc.embeddingModel)
		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Embedding.Values, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return result.([]float32), nil
}

func (gc *GeminiClient) Format(ctx context.Context, text string) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.format_markdown")
	defer span.End()

	span.SetAttributes(
		attribute.String("gemini.model", gc.textModel),
		attribute.Int("gemini.text_chars", len(text)),
	)

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.textModel)
		model.SetTemperature(0.1)
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(formatSystemPrompt)},
		}

		resp, err := model.GenerateContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return nil, fmt.Errorf("no content returned")
		}

		var b strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if textPart, ok := part.(genai.Text); ok {
				b.WriteString(string(textPart))
			}
		}
		return b.String(), nil
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	return result.(string), nil
}

func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}

const formatSystemPrompt = `You are a document formatter. Rewrite the given raw text extracted from a course document into clean, well-structured markdown. Preserve ALL content exactly: do not summarize, omit, or invent anything. Fix broken line wraps, restore headings and lists where the structure is evident, and normalize whitespace. Output only the markdown, with no surrounding commentary or code fences.`
