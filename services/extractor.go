package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"

	"entrenai/internal/logger"
)

var (
	// ErrUnsupportedFormat is returned for file types the extractor does not
	// recognize.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrCorruptContent is returned when a recognized format yields no usable
	// text.
	ErrCorruptContent = errors.New("no usable text content")
)

// ContentExtractor turns downloaded file bytes into raw text, dispatching on
// the file extension. For PDFs without embedded text it falls back to the OCR
// sidecar when one is configured; that fallback is best-effort and may return
// partial text.
type ContentExtractor struct {
	ocr *OCRClient
}

// NewContentExtractor creates an extractor. ocr may be nil to disable the
// image-text-recognition fallback.
func NewContentExtractor(ocr *OCRClient) *ContentExtractor {
	return &ContentExtractor{ocr: ocr}
}

// Extract returns the raw text of a file plus format-specific metadata
// (page counts, sheet names) for chunk provenance.
func (e *ContentExtractor) Extract(ctx context.Context, filename string, data []byte) (string, map[string]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".txt", ".md", ".markdown":
		// Plain text passes through; an empty file is not an error here.
		return string(data), nil, nil
	case ".html", ".htm":
		return e.extractHTML(data)
	case ".pdf":
		return e.extractPDF(ctx, filename, data)
	case ".docx":
		return e.extractDocx(data)
	case ".xlsx":
		return e.extractXlsx(data)
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func (e *ContentExtractor) extractHTML(data []byte) (string, map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrCorruptContent, err)
	}

	doc.Find("script, style, noscript").Remove()

	extra := map[string]string{}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		extra["html_title"] = title
	}

	text := strings.TrimSpace(doc.Find("body").Text())
	if text == "" {
		text = strings.TrimSpace(doc.Text())
	}
	return text, extra, nil
}

func (e *ContentExtractor) extractPDF(ctx context.Context, filename string, data []byte) (string, map[string]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("%w: failed to parse pdf: %v", ErrCorruptContent, err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("Failed to extract text from page", "file", filename, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			textBuilder.WriteString(text)
			textBuilder.WriteString("\n\n")
		}
	}

	extra := map[string]string{"pages": fmt.Sprintf("%d", pages)}
	extracted := strings.TrimSpace(textBuilder.String())
	if extracted != "" {
		return extracted, extra, nil
	}

	// Scanned PDF: no embedded text layer. Try OCR when available.
	if e.ocr != nil {
		logger.Info("No embedded text in PDF, falling back to OCR", "file", filename)
		ocrText, err := e.ocr.ExtractText(ctx, filename, data)
		if err != nil {
			return "", nil, fmt.Errorf("%w: ocr fallback failed: %v", ErrCorruptContent, err)
		}
		return ocrText, extra, nil
	}

	return "", nil, fmt.Errorf("%w: pdf has no embedded text and OCR is disabled", ErrCorruptContent)
}

func (e *ContentExtractor) extractDocx(data []byte) (string, map[string]string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("%w: failed to parse docx: %v", ErrCorruptContent, err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	if strings.TrimSpace(content) == "" {
		return "", nil, fmt.Errorf("%w: docx contains no text", ErrCorruptContent)
	}
	return content, nil, nil
}

func (e *ContentExtractor) extractXlsx(data []byte) (string, map[string]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: failed to parse xlsx: %v", ErrCorruptContent, err)
	}
	defer f.Close()

	var contentParts []string
	sheets := f.GetSheetList()

	for _, sheetName := range sheets {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			logger.Warn("Failed to read sheet", "sheet", sheetName, "error", err)
			continue
		}

		var sheetText strings.Builder
		sheetText.WriteString(fmt.Sprintf("--- Sheet: %s ---\n", sheetName))
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line != "" {
				sheetText.WriteString(line)
				sheetText.WriteString("\n")
			}
		}
		contentParts = append(contentParts, sheetText.String())
	}

	extra := map[string]string{"sheets": fmt.Sprintf("%d", len(sheets))}
	return strings.TrimSpace(strings.Join(contentParts, "\n\n")), extra, nil
}
