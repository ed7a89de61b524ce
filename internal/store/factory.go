package store

import "coursesynth.app/api/core/db"

// Stores provides access to all repository implementations, constructed
// from either the pool (non-transactional) or a transaction Executor.
// Usage:
//
//	stores := store.New(database.Pool())
//	user, err := stores.Users().GetByID(ctx, 123)
//
//	err := database.WithTx(ctx, func(tx db.Executor) error {
//	    txStores := store.New(tx)
//	    ...
//	    return nil
//	})
type Stores struct {
	exec db.Executor
}

func New(exec db.Executor) *Stores {
	return &Stores{exec: exec}
}

func (s *Stores) Users() UserStore               { return &userStore{s.exec} }
func (s *Stores) Sessions() SessionStore         { return &sessionStore{s.exec} }
func (s *Stores) Courses() CourseStore           { return &courseStore{s.exec} }
func (s *Stores) Chapters() ChapterStore         { return &chapterStore{s.exec} }
func (s *Stores) Questions() QuestionStore       { return &questionStore{s.exec} }
func (s *Stores) Documents() DocumentStore       { return &documentStore{s.exec} }
func (s *Stores) Images() ImageStore             { return &imageStore{s.exec} }
func (s *Stores) ChatMessages() ChatMessageStore { return &chatMessageStore{s.exec} }
func (s *Stores) Notes() NoteStore               { return &noteStore{s.exec} }
