package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"entrenai/models"
)

// ErrTaskNotFound indicates no task with the given id is known to the queue.
var ErrTaskNotFound = errors.New("task not found")

// TaskStatus is the externally visible state of an ingestion task.
type TaskStatus struct {
	TaskID string             `json:"task_id"`
	State  string             `json:"state"`
	Stage  string             `json:"stage,omitempty"`
	Result *models.TaskResult `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// StatusReader resolves task state from the asynq inspector plus the
// per-task stage key maintained by the worker.
type StatusReader struct {
	inspector *asynq.Inspector
	rdb       *redis.Client
}

func NewStatusReader(redisOpt asynq.RedisClientOpt, rdb *redis.Client) *StatusReader {
	return &StatusReader{
		inspector: asynq.NewInspector(redisOpt),
		rdb:       rdb,
	}
}

// GetTaskStatus looks up a task in the ingest queue.
func (r *StatusReader) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	info, err := r.inspector.GetTaskInfo(QueueIngest, taskID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to inspect task %s: %w", taskID, err)
	}

	status := &TaskStatus{TaskID: taskID}

	switch info.State {
	case asynq.TaskStatePending, asynq.TaskStateScheduled:
		status.State = models.StatePending
	case asynq.TaskStateActive:
		status.State = r.stage(ctx, taskID)
		if status.State == "" {
			status.State = models.StatePending
		}
		status.Stage = status.State
	case asynq.TaskStateCompleted:
		status.State = models.StateCompleted
		if len(info.Result) > 0 {
			var result models.TaskResult
			if err := json.Unmarshal(info.Result, &result); err == nil {
				status.Result = &result
				// Pipelines that ran but could not index the file report
				// failed terminal state through their result payload.
				if result.State == models.StateFailed {
					status.State = models.StateFailed
					status.Error = result.Error
				}
			}
		}
	case asynq.TaskStateArchived, asynq.TaskStateRetry:
		status.State = models.StateFailed
		status.Error = info.LastErr
		if len(info.Result) > 0 {
			var result models.TaskResult
			if err := json.Unmarshal(info.Result, &result); err == nil {
				status.Result = &result
			}
		}
	default:
		status.State = info.State.String()
	}

	return status, nil
}

func (r *StatusReader) stage(ctx context.Context, taskID string) string {
	if r.rdb == nil {
		return ""
	}
	stage, err := r.rdb.Get(ctx, StageKey(taskID)).Result()
	if err != nil {
		return ""
	}
	return stage
}

func (r *StatusReader) Close() error {
	return r.inspector.Close()
}
