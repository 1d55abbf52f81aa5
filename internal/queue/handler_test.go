package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"entrenai/models"
)

type fakePipeline struct {
	result *models.TaskResult
	err    error

	gotCourseID int64
	gotFilename string
	gotFileURL  string
	gotModified int64
}

func (f *fakePipeline) Process(ctx context.Context, courseID int64, filename, fileURL string, sourceModifiedAt int64, progress func(stage string)) (*models.TaskResult, error) {
	f.gotCourseID = courseID
	f.gotFilename = filename
	f.gotFileURL = fileURL
	f.gotModified = sourceModifiedAt
	return f.result, f.err
}

func TestNewFileProcessTaskPayload(t *testing.T) {
	file := models.CourseFile{CourseID: 42, Filename: "lecture1.pdf", FileURL: "http://lms/f", TimeModified: 1700000000}

	task, err := NewFileProcessTask(file, 5*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TaskProcessFile {
		t.Errorf("unexpected task type %q", task.Type())
	}

	var payload FileProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.CourseID != 42 || payload.Filename != "lecture1.pdf" || payload.ModifiedAt != 1700000000 {
		t.Errorf("payload mismatch: %+v", payload)
	}
}

func TestProcessFileDispatchesPayload(t *testing.T) {
	pipeline := &fakePipeline{result: &models.TaskResult{State: models.StateCompleted, ChunksWritten: 3}}
	p := NewTaskProcessor(pipeline, nil)

	payload, _ := json.Marshal(FileProcessPayload{CourseID: 42, Filename: "lecture1.pdf", FileURL: "http://lms/f", ModifiedAt: 1700000000})
	task := asynq.NewTask(TaskProcessFile, payload)

	if err := p.ProcessFile(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	if pipeline.gotCourseID != 42 || pipeline.gotFilename != "lecture1.pdf" || pipeline.gotFileURL != "http://lms/f" || pipeline.gotModified != 1700000000 {
		t.Errorf("pipeline called with wrong arguments: %+v", pipeline)
	}
}

func TestProcessFilePipelineErrorPropagates(t *testing.T) {
	wantErr := errors.New("extraction failed")
	pipeline := &fakePipeline{result: &models.TaskResult{State: models.StateFailed, Error: wantErr.Error()}, err: wantErr}
	p := NewTaskProcessor(pipeline, nil)

	payload, _ := json.Marshal(FileProcessPayload{CourseID: 1, Filename: "f.pdf"})
	task := asynq.NewTask(TaskProcessFile, payload)

	if err := p.ProcessFile(context.Background(), task); !errors.Is(err, wantErr) {
		t.Errorf("expected pipeline error to propagate, got %v", err)
	}
}

func TestProcessFileMalformedPayloadSkipsRetry(t *testing.T) {
	p := NewTaskProcessor(&fakePipeline{}, nil)
	task := asynq.NewTask(TaskProcessFile, []byte("not json"))

	err := p.ProcessFile(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("malformed payload must not be retried, got %v", err)
	}
}

func TestStageKey(t *testing.T) {
	if got := StageKey("abc123"); got != "entrenai:task:abc123:stage" {
		t.Errorf("unexpected stage key %q", got)
	}
}
