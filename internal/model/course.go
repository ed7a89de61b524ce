package model

import "time"

type CourseStatus string

const (
	CourseStatusCreating CourseStatus = "CREATING"
	CourseStatusUpdating CourseStatus = "UPDATING"
	CourseStatusFinished CourseStatus = "FINISHED"
	CourseStatusFailed   CourseStatus = "FAILED"
)

// Course is the learning artifact produced by the Generation Orchestrator.
// The Orchestrator is the only writer while status is CREATING or UPDATING;
// every other caller must wait until status reaches a terminal value.
type Course struct {
	ID               int64        `json:"id"`
	OwnerID          int64        `json:"owner_id"`
	SessionID        *string      `json:"session_id,omitempty"`
	Query            string       `json:"query"`
	TimeHours        int          `json:"time_hours"`
	Language         string       `json:"language"`
	Difficulty       string       `json:"difficulty"`
	Status           CourseStatus `json:"status"`
	Title            *string      `json:"title,omitempty"`
	Description      *string      `json:"description,omitempty"`
	ImageURL         *string      `json:"image_url,omitempty"`
	ChapterCount     int          `json:"chapter_count"`
	ErrorMessage     *string      `json:"error_message,omitempty"`
	IsPublic         bool         `json:"is_public"`
	ShareSlug        *string      `json:"share_slug,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}
