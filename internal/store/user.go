package store

import (
	"context"
	"errors"
	"time"

	"coursesynth.app/api/core/db"
	"coursesynth.app/api/internal/model"
	"github.com/jackc/pgx/v5"
)

type userStore struct {
	exec db.Executor
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.exec.QueryRow(ctx, `
		SELECT id, name, email, password_hash, avatar_url, is_active, is_admin,
		       login_streak, last_login_at, created_at, updated_at
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.exec.QueryRow(ctx, `
		SELECT id, name, email, password_hash, avatar_url, is_active, is_admin,
		       login_streak, last_login_at, created_at, updated_at
		FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByName backs login-by-username.
func (s *userStore) GetByName(ctx context.Context, name string) (*model.User, error) {
	row := s.exec.QueryRow(ctx, `
		SELECT id, name, email, password_hash, avatar_url, is_active, is_admin,
		       login_streak, last_login_at, created_at, updated_at
		FROM users WHERE name = $1`, name)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.IsActive,
		&u.IsAdmin, &u.LoginStreak, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns every user ordered by id, for the admin listing endpoint.
func (s *userStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.exec.Query(ctx, `
		SELECT id, name, email, password_hash, avatar_url, is_active, is_admin,
		       login_streak, last_login_at, created_at, updated_at
		FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	return s.exec.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, avatar_url, is_active, is_admin,
		                    login_streak, last_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, $5, 0, NULL, $6, $6)
		RETURNING id, created_at, updated_at`,
		user.Name, user.Email, user.PasswordHash, user.AvatarURL, user.IsAdmin, now,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (s *userStore) Update(ctx context.Context, user *model.User) error {
	_, err := s.exec.Exec(ctx, `
		UPDATE users SET name = $1, email = $2, avatar_url = $3, is_active = $4,
		       is_admin = $5, updated_at = $6
		WHERE id = $7`,
		user.Name, user.Email, user.AvatarURL, user.IsActive, user.IsAdmin, time.Now().UTC(), user.ID,
	)
	return err
}

// Delete cascades to every owned entity.5: notes, images,
// questions, documents, and chapters belonging to the user's courses, the
// courses themselves, the user's unbound documents/images, and finally the
// user row. Callers run this inside db.WithTx.
func (s *userStore) Delete(ctx context.Context, id int64) error {
	statements := []string{
		`DELETE FROM notes WHERE user_id = $1`,
		`DELETE FROM chat_messages WHERE user_id = $1`,
		`DELETE FROM questions WHERE chapter_id IN (
			SELECT id FROM chapters WHERE course_id IN (SELECT id FROM courses WHERE owner_id = $1)
		)`,
		`DELETE FROM chapters WHERE course_id IN (SELECT id FROM courses WHERE owner_id = $1)`,
		`DELETE FROM documents WHERE owner_id = $1`,
		`DELETE FROM images WHERE owner_id = $1`,
		`DELETE FROM courses WHERE owner_id = $1`,
		`DELETE FROM sessions WHERE user_id = $1`,
		`DELETE FROM usage_events WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := s.exec.Exec(ctx, stmt, id); err != nil {
			return err
		}
	}
	return nil
}

// RecordLogin applies the streak invariant: same calendar day
// as last login → unchanged; exactly the day before → +1; otherwise → reset
// to 1. now is a Unix timestamp (UTC) so callers can't accidentally pass a
// non-UTC time.Time and skew the day boundary.
func (s *userStore) RecordLogin(ctx context.Context, id int64, now int64) (int, error) {
	loginTime := time.Unix(now, 0).UTC()
	today := loginTime.Truncate(24 * time.Hour)

	var lastLogin *time.Time
	var streak int
	err := s.exec.QueryRow(ctx, `SELECT last_login_at, login_streak FROM users WHERE id = $1`, id).
		Scan(&lastLogin, &streak)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	switch {
	case lastLogin == nil:
		streak = 1
	default:
		lastDay := lastLogin.UTC().Truncate(24 * time.Hour)
		switch today.Sub(lastDay) {
		case 0:
			// same day, unchanged
		case 24 * time.Hour:
			streak++
		default:
			streak = 1
		}
	}

	_, err = s.exec.Exec(ctx, `UPDATE users SET last_login_at = $1, login_streak = $2 WHERE id = $3`,
		loginTime, streak, id)
	if err != nil {
		return 0, err
	}
	return streak, nil
}
