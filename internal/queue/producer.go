package queue

import (
	"context"
	"fmt"
	"log/slog"

	"coursesynth.app/api/common/logger"
	"github.com/redis/go-redis/v9"
)

// GenerationMessage is what the API layer enqueues to kick off one course's
// background generation.
type GenerationMessage struct {
	TaskID   string
	UserID   int64
	CourseID int64
	TraceID  *string
	Attempt  int
}

type Producer interface {
	Enqueue(ctx context.Context, msg GenerationMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
}

func NewRedisProducer(client *redis.Client, stream string) Producer {
	return &redisProducer{
		client: client,
		stream: stream,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg GenerationMessage) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		CourseID:  &msg.CourseID,
		UserID:    &msg.UserID,
		TaskID:    &msg.TaskID,
		Component: "coursesynth.queue.producer",
	})

	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"task_type": string(TaskTypeCourseGeneration),
		"task_id":   msg.TaskID,
		"user_id":   msg.UserID,
		"course_id": msg.CourseID,
		"attempt":   attempt,
	}

	traceIDStr := ""
	if msg.TraceID != nil && *msg.TraceID != "" {
		fields["trace_id"] = *msg.TraceID
		traceIDStr = *msg.TraceID
	}

	// TODO: add MAXLEN to cap stream growth; unbounded for now since course
	// generation volume is expected to stay low.
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue generation task (stream=%s): %w", p.stream, err)
	}

	slog.InfoContext(ctx, "enqueued course generation task",
		"task_id", msg.TaskID,
		"attempt", attempt,
		"trace_id", traceIDStr,
		"stream", p.stream)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
