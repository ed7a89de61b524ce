package model

// Chapter belongs to exactly one Course; index is 1-based and dense within
// the course (invariant enforced at persistence time, not here).
type Chapter struct {
	ID          int64   `json:"id"`
	CourseID    int64   `json:"course_id"`
	Index       int     `json:"index"`
	Caption     string  `json:"caption"`
	Summary     string  `json:"summary"`
	Content     string  `json:"content"`
	TimeMinutes int     `json:"time_minutes"`
	IsCompleted bool    `json:"is_completed"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// ChapterPlan is what the Planner agent emits for one chapter before the
// Explainer/Image/Tester fan-out runs against it.
type ChapterPlan struct {
	Caption string   `json:"caption"`
	Content []string `json:"content"`
	Time    int      `json:"time"`
	Note    string   `json:"note,omitempty"`
}
