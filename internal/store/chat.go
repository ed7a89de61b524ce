package store

import (
	"context"
	"time"

	"coursesynth.app/api/core/db"
	"coursesynth.app/api/internal/model"
)

type chatMessageStore struct {
	exec db.Executor
}

func (s *chatMessageStore) ListByCourse(ctx context.Context, courseID int64, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.exec.Query(ctx, `
		SELECT id, course_id, user_id, role, content, created_at
		FROM chat_messages WHERE course_id = $1 ORDER BY created_at ASC LIMIT $2`,
		courseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.CourseID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *chatMessageStore) Create(ctx context.Context, msg *model.ChatMessage) error {
	now := time.Now().UTC()
	return s.exec.QueryRow(ctx, `
		INSERT INTO chat_messages (course_id, user_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		msg.CourseID, msg.UserID, msg.Role, msg.Content, now,
	).Scan(&msg.ID, &msg.CreatedAt)
}
