package dto

import "coursesynth.app/api/internal/service"

type SearchResultResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CourseID    *int64 `json:"course_id,omitempty"`
	CourseTitle string `json:"course_title,omitempty"`
}

func ToSearchResultResponse(r service.SearchResult) SearchResultResponse {
	return SearchResultResponse{
		ID: r.ID, Type: r.Type, Title: r.Title, Description: r.Description,
		CourseID: r.CourseID, CourseTitle: r.CourseTitle,
	}
}
