package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursesynth.app/api/core/db"
	"coursesynth.app/api/internal/model"
	"github.com/jackc/pgx/v5"
)

type courseStore struct {
	exec db.Executor
}

const courseColumns = `id, owner_id, session_id, query, time_hours, language, difficulty,
	status, title, description, image_url, chapter_count, error_message,
	is_public, share_slug, created_at, updated_at`

func scanCourse(row pgx.Row) (*model.Course, error) {
	var c model.Course
	err := row.Scan(&c.ID, &c.OwnerID, &c.SessionID, &c.Query, &c.TimeHours, &c.Language,
		&c.Difficulty, &c.Status, &c.Title, &c.Description, &c.ImageURL, &c.ChapterCount,
		&c.ErrorMessage, &c.IsPublic, &c.ShareSlug, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *courseStore) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	row := s.exec.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns), id)
	return scanCourse(row)
}

func (s *courseStore) GetByShareSlug(ctx context.Context, slug string) (*model.Course, error) {
	row := s.exec.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM courses WHERE share_slug = $1`, courseColumns), slug)
	return scanCourse(row)
}

func (s *courseStore) Create(ctx context.Context, course *model.Course) error {
	now := time.Now().UTC()
	return s.exec.QueryRow(ctx, `
		INSERT INTO courses (owner_id, session_id, query, time_hours, language, difficulty,
		                      status, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, created_at, updated_at`,
		course.OwnerID, course.SessionID, course.Query, course.TimeHours, course.Language,
		course.Difficulty, course.Status, course.IsPublic, now,
	).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)
}

func (s *courseStore) Update(ctx context.Context, course *model.Course) error {
	_, err := s.exec.Exec(ctx, `
		UPDATE courses SET status = $1, title = $2, description = $3, image_url = $4,
		       chapter_count = $5, error_message = $6, is_public = $7, share_slug = $8,
		       updated_at = $9
		WHERE id = $10`,
		course.Status, course.Title, course.Description, course.ImageURL, course.ChapterCount,
		course.ErrorMessage, course.IsPublic, course.ShareSlug, time.Now().UTC(), course.ID,
	)
	return err
}

func (s *courseStore) Delete(ctx context.Context, id int64) error {
	_, err := s.exec.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	return err
}

func (s *courseStore) ListByOwner(ctx context.Context, ownerID int64) ([]model.Course, error) {
	rows, err := s.exec.Query(ctx, fmt.Sprintf(`SELECT %s FROM courses WHERE owner_id = $1 ORDER BY created_at DESC`, courseColumns), ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

// ListPublic returns every course marked is_public, newest first, for the
// public course directory.
func (s *courseStore) ListPublic(ctx context.Context) ([]model.Course, error) {
	rows, err := s.exec.Query(ctx, fmt.Sprintf(`SELECT %s FROM courses WHERE is_public = true ORDER BY created_at DESC`, courseColumns))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

// ListStuckCreating returns courses whose status is CREATING and whose
// updated_at is older than olderThanMinutes — the hourly sweep's query
//.
func (s *courseStore) ListStuckCreating(ctx context.Context, olderThanMinutes int) ([]model.Course, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(olderThanMinutes) * time.Minute)
	rows, err := s.exec.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM courses WHERE status = $1 AND updated_at < $2`, courseColumns),
		model.CourseStatusCreating, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}
