package dto

// UsageEventRequest is POST /statistics/usage's body.
type UsageEventRequest struct {
	UserID    int64  `json:"user_id" binding:"required"`
	URL       string `json:"url,omitempty"`
	CourseID  *int64 `json:"course_id,omitempty"`
	ChapterID *int64 `json:"chapter_id,omitempty"`
	Visible   bool   `json:"visible"`
	Timestamp int64  `json:"timestamp"`
}
