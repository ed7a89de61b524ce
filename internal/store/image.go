package store

import (
	"context"
	"errors"
	"time"

	"coursesynth.app/api/core/db"
	"coursesynth.app/api/internal/model"
	"github.com/jackc/pgx/v5"
)

type imageStore struct {
	exec db.Executor
}

const imageColumns = `id, owner_id, course_id, filename, content_type, size_bytes, payload, created_at`

func scanImage(row pgx.Row) (*model.Image, error) {
	var img model.Image
	err := row.Scan(&img.ID, &img.OwnerID, &img.CourseID, &img.Filename, &img.ContentType,
		&img.SizeBytes, &img.Payload, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &img, nil
}

func (s *imageStore) GetByID(ctx context.Context, id int64) (*model.Image, error) {
	row := s.exec.QueryRow(ctx, `SELECT `+imageColumns+` FROM images WHERE id = $1`, id)
	return scanImage(row)
}

func (s *imageStore) Create(ctx context.Context, img *model.Image) error {
	now := time.Now().UTC()
	return s.exec.QueryRow(ctx, `
		INSERT INTO images (owner_id, course_id, filename, content_type, size_bytes, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		img.OwnerID, img.CourseID, img.Filename, img.ContentType, img.SizeBytes, img.Payload, now,
	).Scan(&img.ID, &img.CreatedAt)
}

func (s *imageStore) Delete(ctx context.Context, id int64) error {
	_, err := s.exec.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	return err
}

// BindToCourse attaches an owner's previously-unbound image to a course.
func (s *imageStore) BindToCourse(ctx context.Context, id, courseID int64) error {
	_, err := s.exec.Exec(ctx, `UPDATE images SET course_id = $1 WHERE id = $2`, courseID, id)
	return err
}

func (s *imageStore) ListUnboundByOwner(ctx context.Context, ownerID int64) ([]model.Image, error) {
	rows, err := s.exec.Query(ctx, `SELECT `+imageColumns+` FROM images WHERE owner_id = $1 AND course_id IS NULL`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []model.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}
