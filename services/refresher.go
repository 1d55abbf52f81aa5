package services

import (
	"context"

	"entrenai/internal/logger"
	"entrenai/models"
)

// FileLister enumerates a course's files from the LMS.
type FileLister interface {
	ListFiles(ctx context.Context, courseID int64) ([]models.CourseFile, error)
}

// TaskEnqueuer dispatches one independent processing task per file.
type TaskEnqueuer interface {
	EnqueueFileTask(ctx context.Context, file models.CourseFile) (string, error)
}

// QueuedFile describes one task dispatched by a refresh.
type QueuedFile struct {
	Filename string `json:"filename"`
	TaskID   string `json:"task_id"`
	Status   string `json:"status"` // new or modified
}

// RefreshResult summarizes a refresh trigger run.
type RefreshResult struct {
	CourseID  int64        `json:"course_id"`
	Queued    []QueuedFile `json:"queued"`
	Unchanged int          `json:"unchanged"`
}

// CourseRefresher is the external trigger's entry point: it lists the
// course's files, asks the change detector which need (re)processing and
// enqueues one task per qualifying file. Tasks run concurrently with no
// ordering guarantee.
type CourseRefresher struct {
	lms      FileLister
	detector *ChangeDetector
	queue    TaskEnqueuer
}

func NewCourseRefresher(lms FileLister, detector *ChangeDetector, queue TaskEnqueuer) *CourseRefresher {
	return &CourseRefresher{lms: lms, detector: detector, queue: queue}
}

func (r *CourseRefresher) Refresh(ctx context.Context, courseID int64) (*RefreshResult, error) {
	files, err := r.lms.ListFiles(ctx, courseID)
	if err != nil {
		return nil, err
	}

	result := &RefreshResult{CourseID: courseID, Queued: []QueuedFile{}}

	for _, file := range files {
		status, err := r.detector.Classify(ctx, courseID, file.Filename, file.TimeModified)
		if err != nil {
			return nil, err
		}
		if status == FileUnchanged {
			result.Unchanged++
			continue
		}

		taskID, err := r.queue.EnqueueFileTask(ctx, file)
		if err != nil {
			return nil, err
		}
		result.Queued = append(result.Queued, QueuedFile{
			Filename: file.Filename,
			TaskID:   taskID,
			Status:   string(status),
		})
	}

	logger.Info("Course refresh dispatched",
		"course", courseID, "queued", len(result.Queued), "unchanged", result.Unchanged)

	return result, nil
}
