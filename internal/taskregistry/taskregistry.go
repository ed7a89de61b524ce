// Package taskregistry implements the Task Registry (C10): create/update/
// get/cancel/list/retry over background generation tasks, backed by
// Postgres with a capped jsonb activity log.
package taskregistry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coursesynth.app/api/common/id"
	"coursesynth.app/api/core/db"
	"coursesynth.app/api/internal/model"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("task not found")

type Registry struct {
	exec db.Executor
}

func New(exec db.Executor) *Registry {
	return &Registry{exec: exec}
}

func (r *Registry) Create(ctx context.Context, cfg model.CourseCreationConfig) (*model.Task, error) {
	task := &model.Task{
		ID:       fmt.Sprintf("%d", id.New()),
		CourseID: cfg.CourseID,
		UserID:   cfg.UserID,
		Status:   model.TaskStatusPending,
		Config:   cfg,
	}

	configJSON, err := json.Marshal(task.Config)
	if err != nil {
		return nil, fmt.Errorf("taskregistry: marshal config: %w", err)
	}
	activityJSON, _ := json.Marshal(task.Activity)

	now := time.Now().UTC()
	_, err = r.exec.Exec(ctx, `
		INSERT INTO tasks (id, course_id, user_id, status, progress, current_step, activity, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, '', $5, $6, $7, $7)`,
		task.ID, task.CourseID, task.UserID, task.Status, activityJSON, configJSON, now,
	)
	if err != nil {
		return nil, fmt.Errorf("taskregistry: create: %w", err)
	}
	task.CreatedAt, task.UpdatedAt = now, now
	return task, nil
}

func (r *Registry) Get(ctx context.Context, id string) (*model.Task, error) {
	row := r.exec.QueryRow(ctx, `
		SELECT id, course_id, user_id, status, progress, current_step, activity, error_message, config, created_at, updated_at
		FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

// GetByCourseID returns the most recently created task for a course. Used
// to resolve a cancel request against a course back to the task actually
// running its generation.
func (r *Registry) GetByCourseID(ctx context.Context, courseID int64) (*model.Task, error) {
	row := r.exec.QueryRow(ctx, `
		SELECT id, course_id, user_id, status, progress, current_step, activity, error_message, config, created_at, updated_at
		FROM tasks WHERE course_id = $1 ORDER BY created_at DESC LIMIT 1`, courseID)
	return scanTask(row)
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var (
		t            model.Task
		activityJSON []byte
		configJSON   []byte
	)
	err := row.Scan(&t.ID, &t.CourseID, &t.UserID, &t.Status, &t.Progress, &t.CurrentStep,
		&activityJSON, &t.Error, &configJSON, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(activityJSON, &t.Activity); err != nil {
		return nil, fmt.Errorf("taskregistry: unmarshal activity: %w", err)
	}
	if err := json.Unmarshal(configJSON, &t.Config); err != nil {
		return nil, fmt.Errorf("taskregistry: unmarshal config: %w", err)
	}
	return &t, nil
}

// Update persists status/progress/activity/error in one row write. Activity
// is capped to model.MaxActivityLogEntries before this call by the caller
// via Task.AppendActivity.
func (r *Registry) Update(ctx context.Context, task *model.Task) error {
	activityJSON, err := json.Marshal(task.Activity)
	if err != nil {
		return fmt.Errorf("taskregistry: marshal activity: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.exec.Exec(ctx, `
		UPDATE tasks SET status = $1, progress = $2, current_step = $3, activity = $4,
		       error_message = $5, updated_at = $6
		WHERE id = $7`,
		task.Status, task.Progress, task.CurrentStep, activityJSON, task.Error, now, task.ID,
	)
	if err != nil {
		return fmt.Errorf("taskregistry: update: %w", err)
	}
	task.UpdatedAt = now
	return nil
}

// Cancel flags id for cooperative cancellation by persisting
// cancel_requested, so the flag is visible to whichever worker process is
// actually running the task, not just the process that called Cancel (the
// API server and the worker run as separate OS processes against a shared
// Postgres database). The Orchestrator observes this at its next suspension
// point and marks the task TaskStatusCancelled within one suspension period.
func (r *Registry) Cancel(ctx context.Context, id string) error {
	_, err := r.exec.Exec(ctx, `UPDATE tasks SET cancel_requested = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("taskregistry: cancel: %w", err)
	}
	return nil
}

// IsCancelled is polled by the Orchestrator before and after every external
// call. It reads cancel_requested from Postgres rather than in-process
// state so a cancel set by the API server process is visible to the worker
// process executing the task.
func (r *Registry) IsCancelled(ctx context.Context, id string) bool {
	var cancelled bool
	err := r.exec.QueryRow(ctx, `SELECT cancel_requested FROM tasks WHERE id = $1`, id).Scan(&cancelled)
	if err != nil {
		// Unknown task or transient read error: do not stop a running task
		// on an ambiguous signal.
		return false
	}
	return cancelled
}

func (r *Registry) clearCancelFlag(ctx context.Context, id string) error {
	_, err := r.exec.Exec(ctx, `UPDATE tasks SET cancel_requested = false WHERE id = $1`, id)
	return err
}

func (r *Registry) ListByUser(ctx context.Context, userID int64) ([]model.Task, error) {
	rows, err := r.exec.Query(ctx, `
		SELECT id, course_id, user_id, status, progress, current_step, activity, error_message, config, created_at, updated_at
		FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Retry creates a fresh Task replaying the original CourseCreationConfig
// verbatim; only tasks in TaskStatusFailed are eligible.
func (r *Registry) Retry(ctx context.Context, id string) (*model.Task, error) {
	original, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if original.Status != model.TaskStatusFailed {
		return nil, fmt.Errorf("taskregistry: task %s is not failed, cannot retry", id)
	}
	if err := r.clearCancelFlag(ctx, id); err != nil {
		return nil, fmt.Errorf("taskregistry: clear cancel flag: %w", err)
	}
	return r.Create(ctx, original.Config)
}
