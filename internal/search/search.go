// Package search implements the full-text search supplement to Persistence
// (C5): Typesense-backed indexes over course and chapter text, queried
// title-first so title matches rank above description/content matches.
package search

import (
	"context"
	"fmt"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"
)

const (
	coursesCollection  = "courses"
	chaptersCollection = "chapters"
)

type Service struct {
	client *typesense.Client
}

func New(host string, port int, apiKey string) *Service {
	url := fmt.Sprintf("http://%s:%d", host, port)
	client := typesense.NewClient(
		typesense.WithServer(url),
		typesense.WithAPIKey(apiKey),
	)
	return &Service{client: client}
}

// EnsureCollections creates the courses/chapters collections if they don't
// already exist; safe to call on every startup.
func (s *Service) EnsureCollections(ctx context.Context) error {
	schemas := []*api.CollectionSchema{
		{
			Name: coursesCollection,
			Fields: []api.Field{
				{Name: "id", Type: "string"},
				{Name: "owner_id", Type: "int64"},
				{Name: "title", Type: "string"},
				{Name: "description", Type: "string"},
				{Name: "is_public", Type: "bool"},
			},
		},
		{
			Name: chaptersCollection,
			Fields: []api.Field{
				{Name: "id", Type: "string"},
				{Name: "course_id", Type: "int64"},
				{Name: "owner_id", Type: "int64"},
				{Name: "caption", Type: "string"},
				{Name: "summary", Type: "string"},
				{Name: "content", Type: "string"},
				{Name: "is_public", Type: "bool"},
			},
		},
	}

	for _, schema := range schemas {
		if _, err := s.client.Collections().Create(ctx, schema); err != nil {
			// Typesense returns a 409 if the collection already exists;
			// treat anything else as fatal.
			if !isConflict(err) {
				return fmt.Errorf("search: ensure collection %s: %w", schema.Name, err)
			}
		}
	}
	return nil
}

func isConflict(err error) bool {
	var apiErr *typesense.HTTPError
	if ok := asHTTPError(err, &apiErr); ok {
		return apiErr.Status == 409
	}
	return false
}

func asHTTPError(err error, target **typesense.HTTPError) bool {
	httpErr, ok := err.(*typesense.HTTPError)
	if !ok {
		return false
	}
	*target = httpErr
	return true
}

// CourseDocument mirrors the fields a Course contributes to the courses
// collection.
type CourseDocument struct {
	ID          string
	OwnerID     int64
	Title       string
	Description string
	IsPublic    bool
}

func (s *Service) IndexCourse(ctx context.Context, doc CourseDocument) error {
	_, err := s.client.Collection(coursesCollection).Documents().Upsert(ctx, map[string]any{
		"id":          doc.ID,
		"owner_id":    doc.OwnerID,
		"title":       doc.Title,
		"description": doc.Description,
		"is_public":   doc.IsPublic,
	})
	if err != nil {
		return fmt.Errorf("search: index course %s: %w", doc.ID, err)
	}
	return nil
}

// ChapterDocument mirrors the fields a Chapter contributes to the chapters
// collection.
type ChapterDocument struct {
	ID       string
	CourseID int64
	OwnerID  int64
	Caption  string
	Summary  string
	Content  string
	IsPublic bool
}

func (s *Service) IndexChapter(ctx context.Context, doc ChapterDocument) error {
	_, err := s.client.Collection(chaptersCollection).Documents().Upsert(ctx, map[string]any{
		"id":        doc.ID,
		"course_id": doc.CourseID,
		"owner_id":  doc.OwnerID,
		"caption":   doc.Caption,
		"summary":   doc.Summary,
		"content":   doc.Content,
		"is_public": doc.IsPublic,
	})
	if err != nil {
		return fmt.Errorf("search: index chapter %s: %w", doc.ID, err)
	}
	return nil
}

// Hit is one search result, carrying the collection it came from so callers
// can resolve it back to a Course or Chapter row.
type Hit struct {
	Collection string
	ID         string
}

// Query searches both collections, title/caption fields weighted above
// description/summary/content, scoped either to ownerID's own rows or to
// public rows (callers choose by passing publicOnly).
func (s *Service) Query(ctx context.Context, q string, ownerID int64, publicOnly bool) ([]Hit, error) {
	filter := fmt.Sprintf("owner_id:=%d", ownerID)
	if publicOnly {
		filter = "is_public:=true"
	}

	var hits []Hit

	courseParams := &api.SearchCollectionParams{
		Q:                  q,
		QueryBy:            pointer.String("title,description"),
		QueryByWeights:     pointer.String("3,1"),
		FilterBy:           pointer.String(filter),
	}
	courseResults, err := s.client.Collection(coursesCollection).Documents().Search(ctx, courseParams)
	if err != nil {
		return nil, fmt.Errorf("search: query courses: %w", err)
	}
	if courseResults.Hits != nil {
		for _, hit := range *courseResults.Hits {
			if hit.Document == nil {
				continue
			}
			if id, ok := (*hit.Document)["id"].(string); ok {
				hits = append(hits, Hit{Collection: coursesCollection, ID: id})
			}
		}
	}

	chapterParams := &api.SearchCollectionParams{
		Q:              q,
		QueryBy:        pointer.String("caption,summary,content"),
		QueryByWeights: pointer.String("3,2,1"),
		FilterBy:       pointer.String(filter),
	}
	chapterResults, err := s.client.Collection(chaptersCollection).Documents().Search(ctx, chapterParams)
	if err != nil {
		return nil, fmt.Errorf("search: query chapters: %w", err)
	}
	if chapterResults.Hits != nil {
		for _, hit := range *chapterResults.Hits {
			if hit.Document == nil {
				continue
			}
			if id, ok := (*hit.Document)["id"].(string); ok {
				hits = append(hits, Hit{Collection: chaptersCollection, ID: id})
			}
		}
	}

	return hits, nil
}
