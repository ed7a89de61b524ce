package service

import (
	"context"

	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/orchestrator"
	"coursesynth.app/api/internal/store"
)

type QuestionService struct {
	stores *store.Stores
	orch   *orchestrator.Orchestrator
}

func NewQuestionService(stores *store.Stores, orch *orchestrator.Orchestrator) *QuestionService {
	return &QuestionService{stores: stores, orch: orch}
}

func (s *QuestionService) List(ctx context.Context, chapterID, requestingUserID int64) ([]model.PracticeQuestion, error) {
	if err := s.authorize(ctx, chapterID, requestingUserID); err != nil {
		return nil, err
	}
	return s.stores.Questions().ListByChapter(ctx, chapterID)
}

// Save records a user's answer through the /save?users_answer=... endpoint
// and scores it by exact match against CorrectAnswer: 10 points on a match,
// otherwise 0. No LLM call is made.
func (s *QuestionService) Save(ctx context.Context, questionID, requestingUserID int64, usersAnswer string) (*model.PracticeQuestion, error) {
	question, err := s.stores.Questions().GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, question.ChapterID, requestingUserID); err != nil {
		return nil, err
	}

	points := 0
	if question.Kind == model.QuestionKindMC && usersAnswer == question.CorrectAnswer {
		points = 10
	}
	if err := s.stores.Questions().RecordAnswer(ctx, questionID, usersAnswer, points, ""); err != nil {
		return nil, err
	}
	question.UsersAnswer = &usersAnswer
	question.PointsReceived = &points
	return question, nil
}

// Feedback grades an open-ended answer through the Grader agent and persists the result.
func (s *QuestionService) Feedback(ctx context.Context, questionID, requestingUserID int64, usersAnswer string) (*model.PracticeQuestion, error) {
	question, err := s.stores.Questions().GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	chapter, err := s.chapterFor(ctx, question.ChapterID, requestingUserID)
	if err != nil {
		return nil, err
	}

	result, err := s.orch.Grade(ctx, requestingUserID, chapter.ID, question.Question, question.CorrectAnswer, usersAnswer)
	if err != nil {
		return nil, err
	}

	if err := s.stores.Questions().RecordAnswer(ctx, questionID, usersAnswer, result.Points, result.Explanation); err != nil {
		return nil, err
	}
	question.UsersAnswer = &usersAnswer
	question.PointsReceived = &result.Points
	question.Feedback = &result.Explanation
	return question, nil
}

func (s *QuestionService) authorize(ctx context.Context, chapterID, requestingUserID int64) error {
	_, err := s.chapterFor(ctx, chapterID, requestingUserID)
	return err
}

func (s *QuestionService) chapterFor(ctx context.Context, chapterID, requestingUserID int64) (*model.Chapter, error) {
	chapter, err := s.stores.Chapters().GetByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	course, err := s.stores.Courses().GetByID(ctx, chapter.CourseID)
	if err != nil {
		return nil, err
	}
	if course.OwnerID != requestingUserID && !course.IsPublic {
		return nil, ErrForbidden
	}
	return chapter, nil
}
