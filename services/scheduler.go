package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"entrenai/internal/logger"
)

// RefreshScheduler periodically triggers a refresh for the configured courses
// so the index keeps up with the LMS without manual triggers.
type RefreshScheduler struct {
	scheduler *gocron.Scheduler
	refresher *CourseRefresher
	courseIDs []int64
	cronExpr  string
}

func NewRefreshScheduler(refresher *CourseRefresher, cronExpr string, courseIDs []int64) *RefreshScheduler {
	return &RefreshScheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		courseIDs: courseIDs,
		cronExpr:  cronExpr,
	}
}

// Start registers the cron job and runs the scheduler in the background.
func (s *RefreshScheduler) Start() error {
	if s.cronExpr == "" || len(s.courseIDs) == 0 {
		logger.Info("Scheduled refresh disabled")
		return nil
	}

	if _, err := s.scheduler.Cron(s.cronExpr).Do(s.refreshAll); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	s.scheduler.StartAsync()
	logger.Info("Scheduled refresh started", "cron", s.cronExpr, "courses", len(s.courseIDs))
	return nil
}

func (s *RefreshScheduler) Stop() {
	s.scheduler.Stop()
}

func (s *RefreshScheduler) refreshAll() {
	for _, courseID := range s.courseIDs {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		result, err := s.refresher.Refresh(ctx, courseID)
		cancel()
		if err != nil {
			logger.Error("Scheduled refresh failed", "course", courseID, "error", err)
			continue
		}
		logger.Info("Scheduled refresh completed",
			"course", courseID, "queued", len(result.Queued), "unchanged", result.Unchanged)
	}
}
