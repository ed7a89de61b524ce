package store

import (
	"context"
	"errors"
	"time"

	"coursesynth.app/api/core/db"
	"coursesynth.app/api/internal/model"
	"github.com/jackc/pgx/v5"
)

type documentStore struct {
	exec db.Executor
}

const documentColumns = `id, owner_id, course_id, filename, content_type, size_bytes, payload, created_at`

func scanDocument(row pgx.Row) (*model.Document, error) {
	var d model.Document
	err := row.Scan(&d.ID, &d.OwnerID, &d.CourseID, &d.Filename, &d.ContentType,
		&d.SizeBytes, &d.Payload, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *documentStore) GetByID(ctx context.Context, id int64) (*model.Document, error) {
	row := s.exec.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (s *documentStore) Create(ctx context.Context, doc *model.Document) error {
	now := time.Now().UTC()
	return s.exec.QueryRow(ctx, `
		INSERT INTO documents (owner_id, course_id, filename, content_type, size_bytes, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		doc.OwnerID, doc.CourseID, doc.Filename, doc.ContentType, doc.SizeBytes, doc.Payload, now,
	).Scan(&doc.ID, &doc.CreatedAt)
}

func (s *documentStore) Delete(ctx context.Context, id int64) error {
	_, err := s.exec.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}

// BindToCourse attaches an owner's previously-unbound document to a course,
// used by the Generation Orchestrator once a course's title/description are
// persisted.
func (s *documentStore) BindToCourse(ctx context.Context, id, courseID int64) error {
	_, err := s.exec.Exec(ctx, `UPDATE documents SET course_id = $1 WHERE id = $2`, courseID, id)
	return err
}

// ListByCourse returns documents bound to courseID, for GET
// /files/documents?course_id=....
func (s *documentStore) ListByCourse(ctx context.Context, courseID int64) ([]model.Document, error) {
	rows, err := s.exec.Query(ctx, `SELECT `+documentColumns+` FROM documents WHERE course_id = $1`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// ListUnboundByOwner returns owner's documents not attached to any course —
// the cascading-deletion contract reaches these too, since
// they are owned by the user independent of any course.
func (s *documentStore) ListUnboundByOwner(ctx context.Context, ownerID int64) ([]model.Document, error) {
	rows, err := s.exec.Query(ctx, `SELECT `+documentColumns+` FROM documents WHERE owner_id = $1 AND course_id IS NULL`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}
