package services

import (
	"context"
	"errors"
	"testing"

	"entrenai/models"
)

type fakeTracker struct {
	records map[string]*models.ProcessedFileRecord
	err     error
}

func (f *fakeTracker) GetProcessedFile(ctx context.Context, courseID int64, fileIdentifier string) (*models.ProcessedFileRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[fileIdentifier], nil
}

func TestClassifyNewFile(t *testing.T) {
	d := NewChangeDetector(&fakeTracker{records: map[string]*models.ProcessedFileRecord{}})

	status, err := d.Classify(context.Background(), 42, "lecture1.pdf", 1700000000)
	if err != nil {
		t.Fatal(err)
	}
	if status != FileNew {
		t.Errorf("expected %q, got %q", FileNew, status)
	}
}

func TestClassifyModifiedFile(t *testing.T) {
	tracker := &fakeTracker{records: map[string]*models.ProcessedFileRecord{
		"lecture1.pdf": {CourseID: 42, FileIdentifier: "lecture1.pdf", SourceModifiedAt: 1600000000},
	}}
	d := NewChangeDetector(tracker)

	status, err := d.Classify(context.Background(), 42, "lecture1.pdf", 1700000000)
	if err != nil {
		t.Fatal(err)
	}
	if status != FileModified {
		t.Errorf("expected %q, got %q", FileModified, status)
	}
}

func TestClassifyUnchangedFile(t *testing.T) {
	tracker := &fakeTracker{records: map[string]*models.ProcessedFileRecord{
		"lecture1.pdf": {CourseID: 42, FileIdentifier: "lecture1.pdf", SourceModifiedAt: 1700000000},
	}}
	d := NewChangeDetector(tracker)

	status, err := d.Classify(context.Background(), 42, "lecture1.pdf", 1700000000)
	if err != nil {
		t.Fatal(err)
	}
	if status != FileUnchanged {
		t.Errorf("expected %q, got %q", FileUnchanged, status)
	}
}

func TestClassifyTrackerError(t *testing.T) {
	wantErr := errors.New("tracker unavailable")
	d := NewChangeDetector(&fakeTracker{err: wantErr})

	_, err := d.Classify(context.Background(), 42, "lecture1.pdf", 1700000000)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected tracker error to propagate, got %v", err)
	}
}
