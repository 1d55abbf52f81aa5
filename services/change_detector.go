package services

import (
	"context"

	"entrenai/models"
)

// FileStatus classifies a course file against the tracker.
type FileStatus string

const (
	FileNew       FileStatus = "new"
	FileModified  FileStatus = "modified"
	FileUnchanged FileStatus = "unchanged"
)

// TrackerReader is the read side of the file tracker.
type TrackerReader interface {
	GetProcessedFile(ctx context.Context, courseID int64, fileIdentifier string) (*models.ProcessedFileRecord, error)
}

// ChangeDetector decides whether a file needs (re)processing by comparing the
// LMS-reported modification timestamp against the tracked one. Pure read:
// no side effects, safe to call concurrently and repeatedly.
type ChangeDetector struct {
	tracker TrackerReader
}

func NewChangeDetector(tracker TrackerReader) *ChangeDetector {
	return &ChangeDetector{tracker: tracker}
}

// Classify returns FileNew when the file has no tracker record, FileModified
// when the timestamps differ, FileUnchanged when they match.
func (d *ChangeDetector) Classify(ctx context.Context, courseID int64, fileIdentifier string, sourceModifiedAt int64) (FileStatus, error) {
	rec, err := d.tracker.GetProcessedFile(ctx, courseID, fileIdentifier)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return FileNew, nil
	}
	if rec.SourceModifiedAt != sourceModifiedAt {
		return FileModified, nil
	}
	return FileUnchanged, nil
}
