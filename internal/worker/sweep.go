package worker

import (
	"context"
	"log/slog"
	"time"

	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/orchestrator"
	"coursesynth.app/api/internal/store"
)

const (
	// sweepInterval is how often the sweep runs.
	sweepInterval  = time.Hour
	timeoutMessage = "Course creation timed out."
)

// Sweeper periodically fails out courses stuck in CREATING, the backstop
// for cancellations and crashed workers the reclaimer doesn't catch.
type Sweeper struct {
	courses store.CourseStore

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewSweeper(courses store.CourseStore) *Sweeper {
	return &Sweeper{
		courses:   courses,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	defer close(s.stoppedCh)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "stuck-course sweeper started", "interval", sweepInterval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.sweepOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "sweep cycle error", "error", err)
			}
		}
	}
}

func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

func (s *Sweeper) sweepOnce(ctx context.Context) error {
	stuck, err := s.courses.ListStuckCreating(ctx, orchestrator.StuckCreatingCutoffMinutes)
	if err != nil {
		return err
	}

	for _, course := range stuck {
		message := timeoutMessage
		course.Status = model.CourseStatusFailed
		course.ErrorMessage = &message
		if err := s.courses.Update(ctx, &course); err != nil {
			slog.ErrorContext(ctx, "failed to mark stuck course as failed",
				"error", err, "course_id", course.ID)
			continue
		}
		slog.WarnContext(ctx, "marked stuck course as failed", "course_id", course.ID)
	}

	return nil
}
