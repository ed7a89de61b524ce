package store

import (
	"context"
	"errors"

	"coursesynth.app/api/core/db"
	"coursesynth.app/api/internal/model"
	"github.com/jackc/pgx/v5"
)

type questionStore struct {
	exec db.Executor
}

const questionColumns = `id, chapter_id, type, question, answer_a, answer_b, answer_c, answer_d,
	correct_answer, explanation, users_answer, points_received, feedback`

func scanQuestion(row pgx.Row) (*model.PracticeQuestion, error) {
	var q model.PracticeQuestion
	err := row.Scan(&q.ID, &q.ChapterID, &q.Kind, &q.Question, &q.AnswerA, &q.AnswerB,
		&q.AnswerC, &q.AnswerD, &q.CorrectAnswer, &q.Explanation, &q.UsersAnswer,
		&q.PointsReceived, &q.Feedback)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *questionStore) GetByID(ctx context.Context, id int64) (*model.PracticeQuestion, error) {
	row := s.exec.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

func (s *questionStore) ListByChapter(ctx context.Context, chapterID int64) ([]model.PracticeQuestion, error) {
	rows, err := s.exec.Query(ctx, `SELECT `+questionColumns+` FROM questions WHERE chapter_id = $1 ORDER BY id ASC`, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.PracticeQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// Create persists q as the tagged variant set by q.Kind, which callers must
// set via q.HasMCOptions() before calling — never inferred here from
// whitespace in q.Question.
func (s *questionStore) Create(ctx context.Context, q *model.PracticeQuestion) error {
	return s.exec.QueryRow(ctx, `
		INSERT INTO questions (chapter_id, type, question, answer_a, answer_b, answer_c,
		                        answer_d, correct_answer, explanation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		q.ChapterID, q.Kind, q.Question, q.AnswerA, q.AnswerB, q.AnswerC, q.AnswerD,
		q.CorrectAnswer, q.Explanation,
	).Scan(&q.ID)
}

func (s *questionStore) RecordAnswer(ctx context.Context, id int64, usersAnswer string, pointsReceived int, feedback string) error {
	_, err := s.exec.Exec(ctx, `
		UPDATE questions SET users_answer = $1, points_received = $2, feedback = $3
		WHERE id = $4`,
		usersAnswer, pointsReceived, feedback, id,
	)
	return err
}

func (s *questionStore) DeleteByChapter(ctx context.Context, chapterID int64) error {
	_, err := s.exec.Exec(ctx, `DELETE FROM questions WHERE chapter_id = $1`, chapterID)
	return err
}
