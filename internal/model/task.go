package model

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusAnalyzing  TaskStatus = "analyzing"
	TaskStatusExtracting TaskStatus = "extracting"
	TaskStatusGenerating TaskStatus = "generating"
	TaskStatusPackaging  TaskStatus = "packaging"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// ActivityEntry is one row of a Task's capped activity log.
type ActivityEntry struct {
	At      time.Time `json:"at"`
	Step    string    `json:"step"`
	Message string    `json:"message"`
}

const MaxActivityLogEntries = 20

// CourseCreationConfig is the original request a Task was created to run;
// retry(task_id) replays it unchanged.
type CourseCreationConfig struct {
	UserID      int64   `json:"user_id"`
	CourseID    int64   `json:"course_id"`
	Query       string  `json:"query"`
	TimeHours   int     `json:"time_hours"`
	DocumentIDs []int64 `json:"document_ids"`
	ImageIDs    []int64 `json:"image_ids"`
	Language    string  `json:"language"`
	Difficulty  string  `json:"difficulty"`
}

// Task is the observable lifecycle of one Generation Orchestrator run.
type Task struct {
	ID           string                `json:"id"`
	CourseID     int64                 `json:"course_id"`
	UserID       int64                 `json:"user_id"`
	Status       TaskStatus            `json:"status"`
	Progress     int                   `json:"progress"`
	CurrentStep  string                `json:"current_step"`
	Activity     []ActivityEntry       `json:"activity"`
	Error        *string               `json:"error,omitempty"`
	Config       CourseCreationConfig  `json:"config"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// AppendActivity trims the log to the most recent MaxActivityLogEntries.
func (t *Task) AppendActivity(step, message string, at time.Time) {
	t.Activity = append(t.Activity, ActivityEntry{At: at, Step: step, Message: message})
	if len(t.Activity) > MaxActivityLogEntries {
		t.Activity = t.Activity[len(t.Activity)-MaxActivityLogEntries:]
	}
}
