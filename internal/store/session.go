package store

import (
	"context"
	"errors"

	"coursesynth.app/api/core/db"
	"coursesynth.app/api/internal/model"
	"github.com/jackc/pgx/v5"
)

type sessionStore struct {
	exec db.Executor
}

func (s *sessionStore) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	row := s.exec.QueryRow(ctx, `
		SELECT id, user_id, created_at, expires_at
		FROM sessions WHERE id = $1`, id)

	var sess model.Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *sessionStore) Create(ctx context.Context, session *model.Session) error {
	return s.exec.QueryRow(ctx, `
		INSERT INTO sessions (user_id, created_at, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id`,
		session.UserID, session.CreatedAt, session.ExpiresAt,
	).Scan(&session.ID)
}

func (s *sessionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.exec.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *sessionStore) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := s.exec.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}
