package dto

import "coursesynth.app/api/internal/model"

// CreateCourseRequest mirrors the POST /courses/create body. The
// wire field is picture_ids (not image_ids) to match the frontend contract.
type CreateCourseRequest struct {
	Query       string  `json:"query" binding:"required,min=1"`
	TimeHours   int     `json:"time_hours" binding:"required,min=1,max=200"`
	DocumentIDs []int64 `json:"document_ids,omitempty"`
	PictureIDs  []int64 `json:"picture_ids,omitempty"`
	Language    string  `json:"language" binding:"required"`
	Difficulty  string  `json:"difficulty" binding:"required"`
}

type CreateCourseResponse struct {
	CourseID              int64              `json:"course_id"`
	TotalTimeHours        int                `json:"total_time_hours"`
	Status                model.CourseStatus `json:"status"`
	CompletedChapterCount int                `json:"completed_chapter_count"`
}

type SetPublicRequest struct {
	IsPublic bool `json:"is_public"`
}

// QuotaErrorResponse is the typed 429 body for a tripped quota gate.
type QuotaErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Limit   int    `json:"limit"`
	Message string `json:"message"`
}
