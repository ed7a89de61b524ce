package store

import (
	"context"
	"errors"

	"coursesynth.app/api/core/db"
	"coursesynth.app/api/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type chapterStore struct {
	exec db.Executor
}

const chapterColumns = `id, course_id, index, caption, summary, content, time_minutes, is_completed, image_url`

func scanChapter(row pgx.Row) (*model.Chapter, error) {
	var c model.Chapter
	err := row.Scan(&c.ID, &c.CourseID, &c.Index, &c.Caption, &c.Summary, &c.Content,
		&c.TimeMinutes, &c.IsCompleted, &c.ImageURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *chapterStore) GetByID(ctx context.Context, id int64) (*model.Chapter, error) {
	row := s.exec.QueryRow(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE id = $1`, id)
	return scanChapter(row)
}

func (s *chapterStore) ListByCourse(ctx context.Context, courseID int64) ([]model.Chapter, error) {
	rows, err := s.exec.Query(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE course_id = $1 ORDER BY index ASC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, *c)
	}
	return chapters, rows.Err()
}

// Create assigns the next dense 1-based index within the course: the
// invariant that chapter.index is unique and contiguous per course. The
// Orchestrator's chapter fan-out runs every chapter of a course
// concurrently with no upper bound, so a plain read-then-write of MAX(index)
// would race: two chapters could compute the same nextIndex and the second
// INSERT would fail the (course_id, index) uniqueness constraint. The
// MAX-then-INSERT is instead one statement wrapped around
// pg_advisory_xact_lock(course_id), which queues concurrent callers for the
// same course until the lock-holder's (single-statement, auto-committed)
// transaction ends. The statement's snapshot is taken before the lock is
// granted, so a caller that waited can still read a stale MAX and hit the
// uniqueness constraint; Create then reruns the statement, whose fresh
// snapshot sees the committed row. Callers need no explicit transaction.
func (s *chapterStore) Create(ctx context.Context, chapter *model.Chapter) error {
	for {
		err := s.exec.QueryRow(ctx, `
		WITH lock AS MATERIALIZED (
			SELECT pg_advisory_xact_lock($1::bigint)
		), next AS (
			SELECT COALESCE(MAX(index), 0) + 1 AS idx
			FROM chapters, lock
			WHERE course_id = $1
		)
		INSERT INTO chapters (course_id, index, caption, summary, content, time_minutes, is_completed, image_url)
		SELECT $1, next.idx, $2, $3, $4, $5, $6, $7
		FROM next
		RETURNING id, index`,
			chapter.CourseID, chapter.Caption, chapter.Summary, chapter.Content,
			chapter.TimeMinutes, chapter.IsCompleted, chapter.ImageURL,
		).Scan(&chapter.ID, &chapter.Index)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return err
	}
}

func (s *chapterStore) Update(ctx context.Context, chapter *model.Chapter) error {
	_, err := s.exec.Exec(ctx, `
		UPDATE chapters SET caption = $1, summary = $2, content = $3, time_minutes = $4,
		       is_completed = $5, image_url = $6
		WHERE id = $7`,
		chapter.Caption, chapter.Summary, chapter.Content, chapter.TimeMinutes,
		chapter.IsCompleted, chapter.ImageURL, chapter.ID,
	)
	return err
}

func (s *chapterStore) MarkCompleted(ctx context.Context, id int64) error {
	_, err := s.exec.Exec(ctx, `UPDATE chapters SET is_completed = true WHERE id = $1`, id)
	return err
}
