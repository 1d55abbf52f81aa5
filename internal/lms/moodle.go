package lms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"entrenai/models"
)

// MoodleClient talks to the Moodle web-service REST API. The core only
// consumes two capabilities: listing a course's files and downloading one.
type MoodleClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// moodleSection mirrors the relevant parts of core_course_get_contents.
type moodleSection struct {
	ID      int64          `json:"id"`
	Name    string         `json:"name"`
	Modules []moodleModule `json:"modules"`
}

type moodleModule struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	ModName  string          `json:"modname"`
	Contents []moodleContent `json:"contents"`
}

type moodleContent struct {
	Type         string `json:"type"`
	Filename     string `json:"filename"`
	FileURL      string `json:"fileurl"`
	TimeModified int64  `json:"timemodified"`
	FileSize     int64  `json:"filesize"`
}

// moodleError is the envelope Moodle returns instead of data on failure.
type moodleError struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

func NewMoodleClient(baseURL, token string) *MoodleClient {
	return &MoodleClient{
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		baseURL: baseURL,
		token:   token,
	}
}

// ListFiles returns every file resource in the course, flattened across
// sections and modules.
func (c *MoodleClient) ListFiles(ctx context.Context, courseID int64) ([]models.CourseFile, error) {
	q := url.Values{}
	q.Set("wstoken", c.token)
	q.Set("wsfunction", "core_course_get_contents")
	q.Set("moodlewsrestformat", "json")
	q.Set("courseid", fmt.Sprintf("%d", courseID))

	endpoint := c.baseURL + "/webservice/rest/server.php?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moodle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("moodle returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read moodle response: %w", err)
	}

	// Moodle reports errors as a JSON object instead of the expected array.
	var werr moodleError
	if err := json.Unmarshal(body, &werr); err == nil && werr.Exception != "" {
		return nil, fmt.Errorf("moodle error %s: %s", werr.ErrorCode, werr.Message)
	}

	var sections []moodleSection
	if err := json.Unmarshal(body, &sections); err != nil {
		return nil, fmt.Errorf("failed to decode course contents: %w", err)
	}

	var files []models.CourseFile
	for _, section := range sections {
		for _, module := range section.Modules {
			for _, content := range module.Contents {
				if content.Type != "file" {
					continue
				}
				files = append(files, models.CourseFile{
					CourseID:     courseID,
					Filename:     content.Filename,
					FileURL:      content.FileURL,
					TimeModified: content.TimeModified,
				})
			}
		}
	}

	return files, nil
}

// Download fetches a file's bytes. Moodle pluginfile URLs require the
// web-service token as a query parameter.
func (c *MoodleClient) Download(ctx context.Context, fileURL string) ([]byte, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return nil, fmt.Errorf("invalid file url: %w", err)
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}

	return data, nil
}
