// Package store is the persistence layer: hand-written pgx/v5
// repositories over db.Executor, one interface per entity, trading a
// generated query layer for plain SQL (see DESIGN.md for why).
package store

import (
	"context"
	"errors"

	"coursesynth.app/api/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByName(ctx context.Context, name string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
	RecordLogin(ctx context.Context, id int64, now int64) (streak int, err error)
	List(ctx context.Context) ([]model.User, error)
}

type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	Create(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}

type CourseStore interface {
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	GetByShareSlug(ctx context.Context, slug string) (*model.Course, error)
	Create(ctx context.Context, course *model.Course) error
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Course, error)
	ListPublic(ctx context.Context) ([]model.Course, error)
	ListStuckCreating(ctx context.Context, olderThanMinutes int) ([]model.Course, error)
}

type ChapterStore interface {
	GetByID(ctx context.Context, id int64) (*model.Chapter, error)
	ListByCourse(ctx context.Context, courseID int64) ([]model.Chapter, error)
	// Create assigns the next dense 1-based index within courseID.
	Create(ctx context.Context, chapter *model.Chapter) error
	Update(ctx context.Context, chapter *model.Chapter) error
	MarkCompleted(ctx context.Context, id int64) error
}

type QuestionStore interface {
	GetByID(ctx context.Context, id int64) (*model.PracticeQuestion, error)
	ListByChapter(ctx context.Context, chapterID int64) ([]model.PracticeQuestion, error)
	Create(ctx context.Context, question *model.PracticeQuestion) error
	RecordAnswer(ctx context.Context, id int64, usersAnswer string, pointsReceived int, feedback string) error
	DeleteByChapter(ctx context.Context, chapterID int64) error
}

type DocumentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Document, error)
	Create(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id int64) error
	ListUnboundByOwner(ctx context.Context, ownerID int64) ([]model.Document, error)
	ListByCourse(ctx context.Context, courseID int64) ([]model.Document, error)
	BindToCourse(ctx context.Context, id, courseID int64) error
}

type ImageStore interface {
	GetByID(ctx context.Context, id int64) (*model.Image, error)
	Create(ctx context.Context, img *model.Image) error
	Delete(ctx context.Context, id int64) error
	ListUnboundByOwner(ctx context.Context, ownerID int64) ([]model.Image, error)
	BindToCourse(ctx context.Context, id, courseID int64) error
}

type ChatMessageStore interface {
	ListByCourse(ctx context.Context, courseID int64, limit int) ([]model.ChatMessage, error)
	Create(ctx context.Context, msg *model.ChatMessage) error
}

type NoteStore interface {
	GetByChapterAndUser(ctx context.Context, chapterID, userID int64) (*model.Note, error)
	Upsert(ctx context.Context, note *model.Note) error
	DeleteByUser(ctx context.Context, userID int64) error
}
