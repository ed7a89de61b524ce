package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs
// within a context. Fields flow through context enrichment, enabling
// zero-touch logging where business context (course_id, task_id, etc.) is
// automatically included in all log statements.
type LogFields struct {
	CourseID  *int64  // Course being generated or read
	ChapterID *int64  // Chapter within a course
	TaskID    *string // Generation Orchestrator task id
	UserID    *int64  // Acting user
	Component string  // Component name (OTel semantic convention style, e.g., "coursesynth.orchestrator")
}

// WithLogFields enriches context with structured log fields. Multiple calls
// merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context. Returns empty LogFields
// if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.CourseID != nil {
		result.CourseID = new.CourseID
	}
	if new.ChapterID != nil {
		result.ChapterID = new.ChapterID
	}
	if new.TaskID != nil {
		result.TaskID = new.TaskID
	}
	if new.UserID != nil {
		result.UserID = new.UserID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value, useful for setting
// LogFields inline: logger.WithLogFields(ctx, logger.LogFields{CourseID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging potentially long strings like prompts.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
