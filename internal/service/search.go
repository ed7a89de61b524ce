package service

import (
	"context"
	"strconv"

	"coursesynth.app/api/internal/search"
	"coursesynth.app/api/internal/store"
)

const minSearchQueryLength = 2

type SearchResult struct {
	ID          string
	Type        string // "course" or "chapter"
	Title       string
	Description string
	CourseID    *int64
	CourseTitle string
}

type SearchService struct {
	search *search.Service
	stores *store.Stores
}

func NewSearchService(searchSvc *search.Service, stores *store.Stores) *SearchService {
	return &SearchService{search: searchSvc, stores: stores}
}

// Query scopes results to userID's own content, title/caption matches
// ranked first by internal/search's QueryByWeights.
func (s *SearchService) Query(ctx context.Context, userID int64, q string) ([]SearchResult, error) {
	if len(q) < minSearchQueryLength {
		return nil, nil
	}

	hits, err := s.search.Query(ctx, q, userID, false)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		switch hit.Collection {
		case "courses":
			course, err := s.stores.Courses().GetByID(ctx, id)
			if err != nil {
				continue
			}
			title, desc := "", ""
			if course.Title != nil {
				title = *course.Title
			}
			if course.Description != nil {
				desc = *course.Description
			}
			results = append(results, SearchResult{ID: hit.ID, Type: "course", Title: title, Description: desc})
		case "chapters":
			chapter, err := s.stores.Chapters().GetByID(ctx, id)
			if err != nil {
				continue
			}
			course, err := s.stores.Courses().GetByID(ctx, chapter.CourseID)
			courseTitle := ""
			if err == nil && course.Title != nil {
				courseTitle = *course.Title
			}
			results = append(results, SearchResult{
				ID: hit.ID, Type: "chapter", Title: chapter.Caption, Description: chapter.Summary,
				CourseID: &chapter.CourseID, CourseTitle: courseTitle,
			})
		}
	}
	return results, nil
}
