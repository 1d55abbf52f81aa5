package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"entrenai/models"
)

const (
	// TaskProcessFile is the task type for per-file ingestion.
	TaskProcessFile = "course_file:process"
	// QueueIngest is the asynq queue ingestion tasks run on.
	QueueIngest = "ingest"
	// resultRetention keeps terminal task state visible to the status
	// endpoint after completion.
	resultRetention = 24 * time.Hour
)

// FileProcessPayload identifies one file to (re)process. Each payload becomes
// one isolated task; tasks for different files run concurrently.
type FileProcessPayload struct {
	CourseID   int64  `json:"course_id"`
	Filename   string `json:"filename"`
	FileURL    string `json:"file_url"`
	ModifiedAt int64  `json:"modified_at"`
}

// NewFileProcessTask builds the asynq task for a course file. MaxRetry is 0:
// a failed task is terminal, and the next refresh trigger re-dispatches the
// file because the tracker was never updated.
func NewFileProcessTask(file models.CourseFile, timeout time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(FileProcessPayload{
		CourseID:   file.CourseID,
		Filename:   file.Filename,
		FileURL:    file.FileURL,
		ModifiedAt: file.TimeModified,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskProcessFile,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(timeout),
		asynq.Queue(QueueIngest),
		asynq.Retention(resultRetention),
	), nil
}

// Client submits file tasks to the queue.
type Client struct {
	client  *asynq.Client
	timeout time.Duration
}

func NewClient(redisOpt asynq.RedisClientOpt, taskTimeout time.Duration) *Client {
	return &Client{
		client:  asynq.NewClient(redisOpt),
		timeout: taskTimeout,
	}
}

// EnqueueFileTask submits one processing task and returns its task id.
func (c *Client) EnqueueFileTask(ctx context.Context, file models.CourseFile) (string, error) {
	task, err := NewFileProcessTask(file, c.timeout)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
