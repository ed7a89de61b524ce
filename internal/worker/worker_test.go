package worker

import (
	"context"
	"fmt"
	"testing"

	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/orchestrator"
	"coursesynth.app/api/internal/queue"
	"github.com/stretchr/testify/require"
)

type fakeConsumer struct {
	acked    []string
	requeued []string
	dlqed    []string
}

func (f *fakeConsumer) Read(ctx context.Context) ([]queue.Message, error) { return nil, nil }
func (f *fakeConsumer) Ack(ctx context.Context, msg queue.Message) error {
	f.acked = append(f.acked, msg.ID)
	return nil
}
func (f *fakeConsumer) Requeue(ctx context.Context, msg queue.Message, errMsg string) error {
	f.requeued = append(f.requeued, msg.ID)
	return nil
}
func (f *fakeConsumer) SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error {
	f.dlqed = append(f.dlqed, msg.ID)
	return nil
}

type fakeRegistry struct {
	tasks map[string]*model.Task
}

func (f *fakeRegistry) Get(ctx context.Context, id string) (*model.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return t, nil
}
func (f *fakeRegistry) Update(ctx context.Context, task *model.Task) error {
	f.tasks[task.ID] = task
	return nil
}
func (f *fakeRegistry) IsCancelled(ctx context.Context, id string) bool { return false }

type fakeProcessor struct {
	err error
}

func (f *fakeProcessor) Run(ctx context.Context, taskID string, cfg model.CourseCreationConfig, updateStep func(string, int), cancelled orchestrator.CancelChecker) error {
	updateStep("extracting", 10)
	return f.err
}

func TestProcessMessageMarksCompletedAndAcks(t *testing.T) {
	registry := &fakeRegistry{tasks: map[string]*model.Task{
		"t1": {ID: "t1", Status: model.TaskStatusPending},
	}}
	consumer := &fakeConsumer{}
	w := New(consumer, registry, &fakeProcessor{}, Config{MaxAttempts: 3})

	err := w.ProcessMessage(context.Background(), queue.Message{ID: "m1", TaskID: "t1"})
	require.NoError(t, err)
	require.Equal(t, model.TaskStatusCompleted, registry.tasks["t1"].Status)
	require.Contains(t, consumer.acked, "m1")
}

func TestProcessMessageMarksFailedOnError(t *testing.T) {
	registry := &fakeRegistry{tasks: map[string]*model.Task{
		"t2": {ID: "t2", Status: model.TaskStatusPending},
	}}
	consumer := &fakeConsumer{}
	w := New(consumer, registry, &fakeProcessor{err: fmt.Errorf("boom")}, Config{MaxAttempts: 3})

	err := w.ProcessMessage(context.Background(), queue.Message{ID: "m2", TaskID: "t2"})
	require.Error(t, err)
	require.Equal(t, model.TaskStatusFailed, registry.tasks["t2"].Status)
	require.Empty(t, consumer.acked)
}

func TestProcessMessageSkipsTerminalTask(t *testing.T) {
	registry := &fakeRegistry{tasks: map[string]*model.Task{
		"t3": {ID: "t3", Status: model.TaskStatusCompleted},
	}}
	consumer := &fakeConsumer{}
	w := New(consumer, registry, &fakeProcessor{}, Config{MaxAttempts: 3})

	err := w.ProcessMessage(context.Background(), queue.Message{ID: "m3", TaskID: "t3"})
	require.NoError(t, err)
	require.Contains(t, consumer.acked, "m3")
}

func TestHandleFailedMessageRequeuesThenDLQs(t *testing.T) {
	consumer := &fakeConsumer{}
	w := New(consumer, &fakeRegistry{tasks: map[string]*model.Task{}}, &fakeProcessor{}, Config{MaxAttempts: 2})

	w.handleFailedMessage(context.Background(), queue.Message{ID: "m4", Attempt: 1}, fmt.Errorf("x"))
	require.Contains(t, consumer.requeued, "m4")

	w.handleFailedMessage(context.Background(), queue.Message{ID: "m5", Attempt: 2}, fmt.Errorf("x"))
	require.Contains(t, consumer.dlqed, "m5")
}
