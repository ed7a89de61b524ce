package store

import (
	"context"
	"errors"
	"time"

	"coursesynth.app/api/core/db"
	"coursesynth.app/api/internal/model"
	"github.com/jackc/pgx/v5"
)

type noteStore struct {
	exec db.Executor
}

func (s *noteStore) GetByChapterAndUser(ctx context.Context, chapterID, userID int64) (*model.Note, error) {
	row := s.exec.QueryRow(ctx, `
		SELECT id, course_id, chapter_id, user_id, text, created_at, updated_at
		FROM notes WHERE chapter_id = $1 AND user_id = $2`, chapterID, userID)

	var n model.Note
	err := row.Scan(&n.ID, &n.CourseID, &n.ChapterID, &n.UserID, &n.Text, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// Upsert writes one note per (chapter, user), the one-note-per-chapter
// contract implied by GetByChapterAndUser's single-row lookup.
func (s *noteStore) Upsert(ctx context.Context, note *model.Note) error {
	now := time.Now().UTC()
	return s.exec.QueryRow(ctx, `
		INSERT INTO notes (course_id, chapter_id, user_id, text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (chapter_id, user_id) DO UPDATE SET text = $4, updated_at = $5
		RETURNING id, created_at, updated_at`,
		note.CourseID, note.ChapterID, note.UserID, note.Text, now,
	).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)
}

func (s *noteStore) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := s.exec.Exec(ctx, `DELETE FROM notes WHERE user_id = $1`, userID)
	return err
}
