package service

import (
	"context"
	"errors"
	"fmt"

	"coursesynth.app/api/internal/ledger"
	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/orchestrator"
	"coursesynth.app/api/internal/queue"
	"coursesynth.app/api/internal/search"
	"coursesynth.app/api/internal/store"
	"coursesynth.app/api/internal/taskregistry"
)

// QuotaError is the typed 429 body required for POST
// /courses/create: code disambiguates which of the two gates tripped.
type QuotaError struct {
	Code  string
	Limit int
}

func (e *QuotaError) Error() string { return e.Code }

const (
	QuotaCodeMaxCreations = "MAX_COURSE_CREATIONS_REACHED"
	QuotaCodeMaxPresent   = "MAX_PRESENT_COURSES_REACHED"
)

type CourseService struct {
	stores   *store.Stores
	tasks    *taskregistry.Registry
	ledger   *ledger.Ledger
	quota    orchestrator.QuotaConfig
	producer queue.Producer
	search   *search.Service
}

func NewCourseService(stores *store.Stores, tasks *taskregistry.Registry, l *ledger.Ledger, quota orchestrator.QuotaConfig, producer queue.Producer, searchSvc *search.Service) *CourseService {
	return &CourseService{stores: stores, tasks: tasks, ledger: l, quota: quota, producer: producer, search: searchSvc}
}

// CreateParams mirrors the POST /courses/create request body.
type CreateParams struct {
	Query       string
	TimeHours   int
	DocumentIDs []int64
	ImageIDs    []int64
	Language    string
	Difficulty  string
}

// Create runs the quota gate, inserts the course row CREATING, creates its
// Task, and enqueues generation. The quota gate runs synchronously before
// any row is written,.4.
func (s *CourseService) Create(ctx context.Context, userID int64, p CreateParams) (*model.Course, *model.Task, error) {
	if qErr := s.checkQuota(ctx, userID); qErr != nil {
		return nil, nil, qErr
	}

	course := &model.Course{
		OwnerID:    userID,
		Query:      p.Query,
		TimeHours:  p.TimeHours,
		Language:   p.Language,
		Difficulty: p.Difficulty,
		Status:     model.CourseStatusCreating,
	}
	if err := s.stores.Courses().Create(ctx, course); err != nil {
		return nil, nil, fmt.Errorf("create course row: %w", err)
	}

	cfg := model.CourseCreationConfig{
		UserID:      userID,
		CourseID:    course.ID,
		Query:       p.Query,
		TimeHours:   p.TimeHours,
		DocumentIDs: p.DocumentIDs,
		ImageIDs:    p.ImageIDs,
		Language:    p.Language,
		Difficulty:  p.Difficulty,
	}
	task, err := s.tasks.Create(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create task: %w", err)
	}

	if err := s.producer.Enqueue(ctx, queue.GenerationMessage{TaskID: task.ID, UserID: userID, CourseID: course.ID}); err != nil {
		return nil, nil, fmt.Errorf("enqueue generation: %w", err)
	}

	return course, task, nil
}

// checkQuota replicates orchestrator.CheckQuota's two gates directly
// (rather than calling it and pattern-matching on orchestrator.ErrQuotaExceeded)
// because the 429 body needs to name which gate tripped and its limit.
func (s *CourseService) checkQuota(ctx context.Context, userID int64) error {
	created, err := s.ledger.CountCreatedCourses(ctx, userID)
	if err != nil {
		return fmt.Errorf("quota check: %w", err)
	}
	if s.quota.MaxCourseCreations > 0 && created >= s.quota.MaxCourseCreations {
		return &QuotaError{Code: QuotaCodeMaxCreations, Limit: s.quota.MaxCourseCreations}
	}

	live, err := s.ledger.LiveCourseCount(ctx, userID)
	if err != nil {
		return fmt.Errorf("quota check: %w", err)
	}
	if s.quota.MaxPresentCourses > 0 && live >= s.quota.MaxPresentCourses {
		return &QuotaError{Code: QuotaCodeMaxPresent, Limit: s.quota.MaxPresentCourses}
	}
	return nil
}

func (s *CourseService) ListOwned(ctx context.Context, userID int64) ([]model.Course, error) {
	return s.stores.Courses().ListByOwner(ctx, userID)
}

func (s *CourseService) ListPublic(ctx context.Context) ([]model.Course, error) {
	return s.stores.Courses().ListPublic(ctx)
}

func (s *CourseService) Get(ctx context.Context, id int64, requestingUserID int64) (*model.Course, error) {
	course, err := s.stores.Courses().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.OwnerID != requestingUserID && !course.IsPublic {
		return nil, ErrForbidden
	}
	s.reindex(ctx, course)
	return course, nil
}

func (s *CourseService) Delete(ctx context.Context, id, requestingUserID int64) error {
	course, err := s.stores.Courses().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if course.OwnerID != requestingUserID {
		return ErrForbidden
	}
	return s.stores.Courses().Delete(ctx, id)
}

// CancelGeneration signals cooperative cancellation of the task currently
// generating id's course. Cancellation is observed by the Orchestrator at
// its next suspension point; the course row is left CREATING (the sweep
// eventually marks a long-stuck CREATING course FAILED) rather than deleted
// here.
func (s *CourseService) CancelGeneration(ctx context.Context, id, requestingUserID int64) error {
	course, err := s.stores.Courses().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if course.OwnerID != requestingUserID {
		return ErrForbidden
	}

	task, err := s.tasks.GetByCourseID(ctx, id)
	if err != nil {
		if errors.Is(err, taskregistry.ErrNotFound) {
			return store.ErrNotFound
		}
		return err
	}
	return s.tasks.Cancel(ctx, task.ID)
}

// SetPublic flips the course's visibility, minting a share slug the first
// time it goes public. Toggling back to private keeps the slug so a
// previously-shared link keeps resolving if the course is republished.
func (s *CourseService) SetPublic(ctx context.Context, id, requestingUserID int64, isPublic bool) (*model.Course, error) {
	course, err := s.stores.Courses().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.OwnerID != requestingUserID {
		return nil, ErrForbidden
	}

	course.IsPublic = isPublic
	if isPublic && course.ShareSlug == nil {
		slug, err := randomHex(8)
		if err != nil {
			return nil, err
		}
		course.ShareSlug = &slug
	}
	if err := s.stores.Courses().Update(ctx, course); err != nil {
		return nil, err
	}
	s.reindex(ctx, course)
	return course, nil
}

// reindex best-effort upserts a finished course into the search index.
// Indexing happens lazily on read/mutation rather than from the background
// worker, keeping internal/orchestrator free of a search dependency (see
// DESIGN.md).
func (s *CourseService) reindex(ctx context.Context, course *model.Course) {
	if s.search == nil || course.Status != model.CourseStatusFinished {
		return
	}
	title, desc := "", ""
	if course.Title != nil {
		title = *course.Title
	}
	if course.Description != nil {
		desc = *course.Description
	}
	_ = s.search.IndexCourse(ctx, search.CourseDocument{
		ID: fmt.Sprintf("%d", course.ID), OwnerID: course.OwnerID,
		Title: title, Description: desc, IsPublic: course.IsPublic,
	})
}
