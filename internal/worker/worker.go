// Package worker drives course-generation tasks read off the queue through
// the Generation Orchestrator, handling retries, the dead-letter queue, and
// crash recovery (internal/worker/reclaimer.go), the same shape as a
// consumer group driving event processing through a streaming pipeline.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"coursesynth.app/api/common/logger"
	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/queue"
)

type Config struct {
	MaxAttempts int
}

type Worker struct {
	consumer  Consumer
	registry  TaskRegistry
	processor CourseProcessor
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, registry TaskRegistry, processor CourseProcessor, cfg Config) *Worker {
	return &Worker{
		consumer:  consumer,
		registry:  registry,
		processor: processor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "course-generation worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "course-generation worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "message processing failed",
				"error", err,
				"message_id", msg.ID,
				"task_id", msg.TaskID)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"stack", string(debug.Stack()),
				"message_id", msg.ID,
				"task_id", msg.TaskID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage runs one course-generation task to completion. Exported so
// the reclaimer can reuse it for stale messages it reclaims.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TaskID:    &msg.TaskID,
		CourseID:  &msg.CourseID,
		UserID:    &msg.UserID,
		Component: "coursesynth.worker",
	})

	task, err := w.registry.Get(ctx, msg.TaskID)
	if err != nil {
		// Unknown task: nothing to retry against, acknowledge and move on.
		slog.ErrorContext(ctx, "task not found, acknowledging", "error", err)
		return w.consumer.Ack(ctx, msg)
	}

	if task.Status == model.TaskStatusCompleted || task.Status == model.TaskStatusFailed || task.Status == model.TaskStatusCancelled {
		slog.InfoContext(ctx, "task already terminal, acknowledging", "status", task.Status)
		return w.consumer.Ack(ctx, msg)
	}

	slog.InfoContext(ctx, "processing course generation task", "attempt", msg.Attempt)

	updateStep := func(step string, progress int) {
		task.Status = model.TaskStatus(step)
		task.Progress = progress
		task.AppendActivity(step, fmt.Sprintf("entered %s", step), time.Now().UTC())
		if err := w.registry.Update(ctx, task); err != nil {
			slog.WarnContext(ctx, "failed to persist task progress", "error", err, "step", step)
		}
	}

	runErr := w.processor.Run(ctx, msg.TaskID, task.Config, updateStep, w.registry.IsCancelled)

	if errors.Is(runErr, context.Canceled) && w.registry.IsCancelled(ctx, msg.TaskID) {
		task.Status = model.TaskStatusCancelled
		task.AppendActivity("cancelled", "course generation cancelled", time.Now().UTC())
		if err := w.registry.Update(ctx, task); err != nil {
			slog.WarnContext(ctx, "failed to persist task cancellation", "error", err)
		}
		if err := w.consumer.Ack(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to ACK message", "error", err, "message_id", msg.ID)
		}
		return nil
	}

	if runErr != nil {
		message := runErr.Error()
		task.Status = model.TaskStatusFailed
		task.Error = &message
		task.AppendActivity("failed", message, time.Now().UTC())
		if err := w.registry.Update(ctx, task); err != nil {
			slog.WarnContext(ctx, "failed to persist task failure", "error", err)
		}
		return runErr
	}

	task.Status = model.TaskStatusCompleted
	task.Progress = 100
	task.AppendActivity("completed", "course generation finished", time.Now().UTC())
	if err := w.registry.Update(ctx, task); err != nil {
		slog.WarnContext(ctx, "failed to persist task completion", "error", err)
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		slog.WarnContext(ctx, "failed to ACK message", "error", err, "message_id", msg.ID)
	}

	slog.InfoContext(ctx, "course generation task completed", "task_id", msg.TaskID)
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"task_id", msg.TaskID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"task_id", msg.TaskID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
