package worker

import (
	"context"

	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/orchestrator"
	"coursesynth.app/api/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// CourseProcessor abstracts the Generation Orchestrator's state machine for
// testability.
type CourseProcessor interface {
	Run(ctx context.Context, taskID string, cfg model.CourseCreationConfig, updateStep func(step string, progress int), cancelled orchestrator.CancelChecker) error
}

// TaskRegistry is the subset of internal/taskregistry.Registry the worker
// drives a task's lifecycle through.
type TaskRegistry interface {
	Get(ctx context.Context, id string) (*model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	IsCancelled(ctx context.Context, id string) bool
}
