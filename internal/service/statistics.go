package service

import (
	"context"

	"coursesynth.app/api/internal/ledger"
	"coursesynth.app/api/internal/model"
)

type StatisticsService struct {
	ledger *ledger.Ledger
}

func NewStatisticsService(l *ledger.Ledger) *StatisticsService {
	return &StatisticsService{ledger: l}
}

// RecordVisibility logs a tab-visibility transition for courseID/chapterID,
// the raw signal TotalLearnTimeMinutes later estimates learn time from
//.
func (s *StatisticsService) RecordVisibility(ctx context.Context, userID int64, courseID, chapterID int64, visible bool) error {
	action := model.ActionSiteHidden
	if visible {
		action = model.ActionSiteVisible
	}
	return s.ledger.Log(ctx, userID, action, &courseID, &chapterID, nil)
}

// Summary is the GET /statistics payload: coarse counters derived entirely
// by scanning usage_events, never a cached aggregate.
type Summary struct {
	CoursesCreated   int
	ChatMessagesSent int
	LearnTimeMinutes int
}

func (s *StatisticsService) Summary(ctx context.Context, userID int64) (*Summary, error) {
	created, err := s.ledger.CountCreatedCourses(ctx, userID)
	if err != nil {
		return nil, err
	}
	chats, err := s.ledger.CountChat(ctx, userID)
	if err != nil {
		return nil, err
	}
	minutes, err := s.ledger.TotalLearnTimeMinutes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Summary{CoursesCreated: created, ChatMessagesSent: chats, LearnTimeMinutes: minutes}, nil
}
