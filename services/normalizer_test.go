package services

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	formatResult string
	formatErr    error
	embedFn      func(text string) ([]float32, error)
}

func (f *fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedFn != nil {
		return f.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeProvider) Format(ctx context.Context, text string) (string, error) {
	return f.formatResult, f.formatErr
}

func (f *fakeProvider) Close() error { return nil }

func TestNormalizeReturnsMarkdown(t *testing.T) {
	n := NewNormalizer(&fakeProvider{formatResult: "# Title\n\nClean body."})

	got, err := n.Normalize(context.Background(), "raw messy   text")
	if err != nil {
		t.Fatal(err)
	}
	if got != "# Title\n\nClean body." {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestNormalizeStripsCodeFence(t *testing.T) {
	n := NewNormalizer(&fakeProvider{formatResult: "```markdown\n# Title\n\nBody\n```"})

	got, err := n.Normalize(context.Background(), "raw")
	if err != nil {
		t.Fatal(err)
	}
	if got != "# Title\n\nBody" {
		t.Errorf("fence not stripped: %q", got)
	}
}

func TestNormalizeProviderError(t *testing.T) {
	wantErr := errors.New("model overloaded")
	n := NewNormalizer(&fakeProvider{formatErr: wantErr})

	_, err := n.Normalize(context.Background(), "raw")
	if !errors.Is(err, wantErr) {
		t.Errorf("expected provider error to propagate, got %v", err)
	}
}

func TestNormalizeEmptyResult(t *testing.T) {
	n := NewNormalizer(&fakeProvider{formatResult: "   \n  "})

	if _, err := n.Normalize(context.Background(), "raw"); err == nil {
		t.Error("expected error for empty normalized text")
	}
}
