package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"entrenai/internal/config"
	"entrenai/internal/logger"
)

// OCRClient talks to the OCR sidecar used for scanned PDFs. Recognition is
// best-effort: a partial result is still returned as text.
type OCRClient struct {
	httpClient *http.Client
	baseURL    string
}

// OCRResponse represents the response from the OCR service
type OCRResponse struct {
	Success bool    `json:"success"`
	Text    string  `json:"text"`
	Pages   int     `json:"pages"`
	Partial bool    `json:"partial"`
	Quality float64 `json:"quality_score"`
	Error   string  `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// NewOCRClient creates a new OCR client, or nil when the sidecar is disabled.
func NewOCRClient(cfg *config.Config) *OCRClient {
	if !cfg.OCRServiceEnabled {
		return nil
	}

	timeout := time.Duration(cfg.OCRTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &OCRClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.OCRServiceURL,
	}
}

// IsHealthy checks if the OCR service is up and its model is loaded.
func (c *OCRClient) IsHealthy(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("OCR service unhealthy: status %d", resp.StatusCode)
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return false, fmt.Errorf("failed to decode health response: %w", err)
	}

	return healthResp.Status == "healthy" && healthResp.ModelLoaded, nil
}

// ExtractText sends the file to the OCR service and returns recognized text.
func (c *OCRClient) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	healthy, err := c.IsHealthy(ctx)
	if err != nil {
		return "", fmt.Errorf("OCR service health check failed: %w", err)
	}
	if !healthy {
		return "", fmt.Errorf("OCR service is not healthy")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fileWriter.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file data: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/ocr/extract", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OCR request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var ocrResp OCRResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return "", fmt.Errorf("failed to decode OCR response: %w", err)
	}

	if !ocrResp.Success {
		return "", fmt.Errorf("OCR processing failed: %s", ocrResp.Error)
	}

	if ocrResp.Partial {
		logger.Warn("OCR returned partial text", "file", filename, "pages", ocrResp.Pages, "quality", ocrResp.Quality)
	}

	return ocrResp.Text, nil
}
