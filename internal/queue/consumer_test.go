package queue

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestParseMessageRoundTrip(t *testing.T) {
	raw := redis.XMessage{
		ID: "1-0",
		Values: map[string]any{
			"task_type": "course_generation",
			"task_id":   "123456",
			"user_id":   "7",
			"course_id": "42",
			"attempt":   "2",
			"trace_id":  "abc-trace",
		},
	}

	msg, err := ParseMessage(raw)
	require.NoError(t, err)
	require.Equal(t, TaskTypeCourseGeneration, msg.TaskType)
	require.Equal(t, "123456", msg.TaskID)
	require.Equal(t, int64(7), msg.UserID)
	require.Equal(t, int64(42), msg.CourseID)
	require.Equal(t, 2, msg.Attempt)
	require.Equal(t, "abc-trace", msg.TraceID)
}

func TestParseMessageDefaultsTaskTypeAndAttempt(t *testing.T) {
	raw := redis.XMessage{
		ID: "2-0",
		Values: map[string]any{
			"task_id":   "999",
			"user_id":   "1",
			"course_id": "2",
		},
	}

	msg, err := ParseMessage(raw)
	require.NoError(t, err)
	require.Equal(t, TaskTypeCourseGeneration, msg.TaskType)
	require.Equal(t, 1, msg.Attempt)
}

func TestParseMessageMissingRequiredFieldErrors(t *testing.T) {
	raw := redis.XMessage{ID: "3-0", Values: map[string]any{"user_id": "1"}}
	_, err := ParseMessage(raw)
	require.Error(t, err)
}
