package queue

// TaskType distinguishes the kinds of background work dispatched through
// the stream. Course generation is the only kind today; the type survives
// as a forward-compatible discriminator the way the wire format already
// carries one.
type TaskType string

const (
	TaskTypeCourseGeneration TaskType = "course_generation"
)

// GenerationTask describes one course-generation job: the Course row in
// CREATING and its Task Registry entry. The API layer enqueues the same
// fields as a GenerationMessage; this struct is not used on that path.
type GenerationTask struct {
	TaskType TaskType
	TaskID   string
	UserID   int64
	CourseID int64
	TraceID  *string
	Attempt  int
}

// StreamName is the single Redis stream course-generation tasks flow
// through.
const StreamName = "coursesynth:course-generation"

// DLQStreamName holds tasks that exhausted their retry budget.
const DLQStreamName = "coursesynth:course-generation:dlq"
