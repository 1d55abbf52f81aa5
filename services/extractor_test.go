package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	e := NewContentExtractor(nil)

	text, extra, err := e.Extract(context.Background(), "notes.txt", []byte("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello world" {
		t.Errorf("plain text should pass through, got %q", text)
	}
	if extra != nil {
		t.Errorf("plain text should carry no extra metadata, got %v", extra)
	}
}

func TestExtractMarkdown(t *testing.T) {
	e := NewContentExtractor(nil)

	text, _, err := e.Extract(context.Background(), "readme.md", []byte("# Title\n\nBody"))
	if err != nil {
		t.Fatal(err)
	}
	if text != "# Title\n\nBody" {
		t.Errorf("markdown should pass through, got %q", text)
	}
}

func TestExtractEmptyPlainTextIsNotAnError(t *testing.T) {
	e := NewContentExtractor(nil)

	text, _, err := e.Extract(context.Background(), "empty.txt", []byte(""))
	if err != nil {
		t.Fatalf("empty plain text should not error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestExtractHTML(t *testing.T) {
	e := NewContentExtractor(nil)
	html := `<html><head><title>Course Page</title><style>body{color:red}</style></head>
<body><script>alert(1)</script><p>Welcome to the course.</p></body></html>`

	text, extra, err := e.Extract(context.Background(), "page.html", []byte(html))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "Welcome to the course.") {
		t.Errorf("body text missing: %q", text)
	}
	if strings.Contains(text, "alert(1)") || strings.Contains(text, "color:red") {
		t.Errorf("script/style content leaked into text: %q", text)
	}
	if extra["html_title"] != "Course Page" {
		t.Errorf("expected html_title metadata, got %v", extra)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := NewContentExtractor(nil)

	_, _, err := e.Extract(context.Background(), "video.mp4", []byte{0x00})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	e := NewContentExtractor(nil)

	_, _, err := e.Extract(context.Background(), "broken.pdf", []byte("not a pdf at all"))
	if !errors.Is(err, ErrCorruptContent) {
		t.Errorf("expected ErrCorruptContent, got %v", err)
	}
}

func TestExtractCorruptDocx(t *testing.T) {
	e := NewContentExtractor(nil)

	_, _, err := e.Extract(context.Background(), "broken.docx", []byte("not a zip archive"))
	if !errors.Is(err, ErrCorruptContent) {
		t.Errorf("expected ErrCorruptContent, got %v", err)
	}
}

func TestExtractCorruptXlsx(t *testing.T) {
	e := NewContentExtractor(nil)

	_, _, err := e.Extract(context.Background(), "broken.xlsx", []byte("garbage"))
	if !errors.Is(err, ErrCorruptContent) {
		t.Errorf("expected ErrCorruptContent, got %v", err)
	}
}
