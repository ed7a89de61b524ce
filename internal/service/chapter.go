package service

import (
	"context"
	"fmt"

	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/search"
	"coursesynth.app/api/internal/store"
)

type ChapterService struct {
	stores *store.Stores
	search *search.Service
}

func NewChapterService(stores *store.Stores, searchSvc *search.Service) *ChapterService {
	return &ChapterService{stores: stores, search: searchSvc}
}

func (s *ChapterService) List(ctx context.Context, courseID, requestingUserID int64) ([]model.Chapter, error) {
	if err := s.authorizeCourse(ctx, courseID, requestingUserID); err != nil {
		return nil, err
	}
	return s.stores.Chapters().ListByCourse(ctx, courseID)
}

func (s *ChapterService) Get(ctx context.Context, id, requestingUserID int64) (*model.Chapter, error) {
	chapter, err := s.stores.Chapters().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeCourse(ctx, chapter.CourseID, requestingUserID); err != nil {
		return nil, err
	}
	return chapter, nil
}

// Update applies an editor's change to caption/content; used by the owner
// to hand-correct a generated chapter.
func (s *ChapterService) Update(ctx context.Context, id, requestingUserID int64, caption, content string) (*model.Chapter, error) {
	chapter, err := s.stores.Chapters().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(ctx, chapter.CourseID, requestingUserID); err != nil {
		return nil, err
	}
	if caption != "" {
		chapter.Caption = caption
	}
	if content != "" {
		chapter.Content = content
	}
	if err := s.stores.Chapters().Update(ctx, chapter); err != nil {
		return nil, err
	}
	s.reindex(ctx, chapter, requestingUserID)
	return chapter, nil
}

func (s *ChapterService) Delete(ctx context.Context, id, requestingUserID int64) error {
	chapter, err := s.stores.Chapters().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeOwner(ctx, chapter.CourseID, requestingUserID); err != nil {
		return err
	}
	if err := s.stores.Questions().DeleteByChapter(ctx, id); err != nil {
		return err
	}
	// ChapterStore has no Delete per its interface (chapters are removed
	// only via the owning course's cascade); deleting a single chapter out
	// from under a dense 1-based index would break that invariant,
	// so this route only clears its questions and content.
	chapter.Content = ""
	return s.stores.Chapters().Update(ctx, chapter)
}

func (s *ChapterService) SetCompleted(ctx context.Context, id, requestingUserID int64, completed bool) error {
	chapter, err := s.stores.Chapters().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeCourse(ctx, chapter.CourseID, requestingUserID); err != nil {
		return err
	}
	if !completed {
		chapter.IsCompleted = false
		return s.stores.Chapters().Update(ctx, chapter)
	}
	return s.stores.Chapters().MarkCompleted(ctx, id)
}

func (s *ChapterService) authorizeCourse(ctx context.Context, courseID, requestingUserID int64) error {
	course, err := s.stores.Courses().GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course.OwnerID != requestingUserID && !course.IsPublic {
		return ErrForbidden
	}
	return nil
}

func (s *ChapterService) authorizeOwner(ctx context.Context, courseID, requestingUserID int64) error {
	course, err := s.stores.Courses().GetByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course.OwnerID != requestingUserID {
		return ErrForbidden
	}
	return nil
}

func (s *ChapterService) reindex(ctx context.Context, chapter *model.Chapter, ownerID int64) {
	if s.search == nil {
		return
	}
	_ = s.search.IndexChapter(ctx, search.ChapterDocument{
		ID: fmt.Sprintf("%d", chapter.ID), CourseID: chapter.CourseID, OwnerID: ownerID,
		Caption: chapter.Caption, Summary: chapter.Summary, Content: chapter.Content,
	})
}
