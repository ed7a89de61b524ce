// Package ledger implements the Usage Ledger (C4): an append-only event
// log plus derived counters computed by scan, never cached aggregates.
package ledger

import (
	"context"
	"fmt"
	"time"

	"coursesynth.app/api/core/db"
	"coursesynth.app/api/internal/model"
)

type Ledger struct {
	exec db.Executor
}

func New(exec db.Executor) *Ledger {
	return &Ledger{exec: exec}
}

// Log writes one append-only row. action must be in the closed vocabulary;
// callers that pass an invalid action get an error rather than a silently
// corrupted ledger.
func (l *Ledger) Log(ctx context.Context, userID int64, action model.UsageAction, courseID, chapterID *int64, details *string) error {
	if !action.Valid() {
		return fmt.Errorf("ledger: invalid action %q", action)
	}

	_, err := l.exec.Exec(ctx, `
		INSERT INTO usage_events (user_id, course_id, chapter_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, courseID, chapterID, string(action), details, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ledger: log %s: %w", action, err)
	}
	return nil
}

// CountCreatedCourses returns the number of create_course rows for user,
// the quota gate's first check.
func (l *Ledger) CountCreatedCourses(ctx context.Context, userID int64) (int, error) {
	return l.countByAction(ctx, userID, model.ActionCreateCourse)
}

// CountChat returns the number of chat rows for user.
func (l *Ledger) CountChat(ctx context.Context, userID int64) (int, error) {
	return l.countByAction(ctx, userID, model.ActionChat)
}

func (l *Ledger) countByAction(ctx context.Context, userID int64, action model.UsageAction) (int, error) {
	var count int
	err := l.exec.QueryRow(ctx, `
		SELECT count(*) FROM usage_events WHERE user_id = $1 AND action = $2`,
		userID, string(action),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ledger: count %s: %w", action, err)
	}
	return count, nil
}

// TotalLearnTimeMinutes is a coarse estimate — 10 minutes per
// site_visible row that carries both a course and a chapter — that
// deliberately avoids open/close pairing.
func (l *Ledger) TotalLearnTimeMinutes(ctx context.Context, userID int64) (int, error) {
	var count int
	err := l.exec.QueryRow(ctx, `
		SELECT count(*) FROM usage_events
		WHERE user_id = $1 AND action = $2 AND course_id IS NOT NULL AND chapter_id IS NOT NULL`,
		userID, string(model.ActionSiteVisible),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ledger: total learn time: %w", err)
	}
	return count * 10, nil
}

// LiveCourseCount returns how many non-terminal (CREATING/UPDATING) courses
// the user currently owns, the quota gate's second check.
func (l *Ledger) LiveCourseCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := l.exec.QueryRow(ctx, `
		SELECT count(*) FROM courses
		WHERE owner_id = $1 AND status IN ($2, $3)`,
		userID, string(model.CourseStatusCreating), string(model.CourseStatusUpdating),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ledger: live course count: %w", err)
	}
	return count, nil
}
