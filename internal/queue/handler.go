package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"entrenai/internal/logger"
	"entrenai/models"
)

// FileProcessor is the pipeline the worker drives for each task.
type FileProcessor interface {
	Process(ctx context.Context, courseID int64, filename, fileURL string, sourceModifiedAt int64, progress func(stage string)) (*models.TaskResult, error)
}

// TaskProcessor handles ingestion tasks on the worker. It records the current
// pipeline stage in Redis so the status endpoint can report fine-grained
// progress while a task is active.
type TaskProcessor struct {
	processor FileProcessor
	rdb       *redis.Client
}

func NewTaskProcessor(processor FileProcessor, rdb *redis.Client) *TaskProcessor {
	return &TaskProcessor{processor: processor, rdb: rdb}
}

// StageKey is the Redis key holding a task's current pipeline stage.
func StageKey(taskID string) string {
	return "entrenai:task:" + taskID + ":stage"
}

// ProcessFile is the asynq handler for TaskProcessFile.
func (p *TaskProcessor) ProcessFile(ctx context.Context, t *asynq.Task) error {
	var payload FileProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	taskID, _ := asynq.GetTaskID(ctx)
	logger.Info("Processing course file",
		"task", taskID, "course", payload.CourseID, "file", payload.Filename)

	progress := func(stage string) {
		p.setStage(ctx, taskID, stage)
	}

	result, err := p.processor.Process(ctx,
		payload.CourseID, payload.Filename, payload.FileURL, payload.ModifiedAt, progress)

	// The terminal result is written regardless of outcome so the status
	// endpoint can surface chunk counts and the failure cause.
	if result != nil {
		if data, merr := json.Marshal(result); merr == nil {
			if w := t.ResultWriter(); w != nil {
				if _, werr := w.Write(data); werr != nil {
					logger.Warn("Failed to write task result", "task", taskID, "error", werr)
				}
			}
		}
	}

	if err != nil {
		p.setStage(ctx, taskID, models.StateFailed)
		logger.Error("Course file task failed",
			"task", taskID, "course", payload.CourseID, "file", payload.Filename, "error", err)
		return err
	}

	p.setStage(ctx, taskID, models.StateCompleted)
	return nil
}

func (p *TaskProcessor) setStage(ctx context.Context, taskID, stage string) {
	if p.rdb == nil || taskID == "" {
		return
	}
	if err := p.rdb.Set(ctx, StageKey(taskID), stage, resultRetention).Err(); err != nil {
		logger.Warn("Failed to record task stage", "task", taskID, "stage", stage, "error", err)
	}
}

// NewServer builds the asynq worker server for the ingest queue.
func NewServer(redisOpt asynq.RedisClientOpt, concurrency int) *asynq.Server {
	return asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueIngest: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
			ShutdownTimeout: 30 * time.Second,
		},
	)
}
