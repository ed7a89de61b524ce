package model

import "time"

// UsageAction is drawn from a closed vocabulary; the ledger never accepts an
// arbitrary string outside this set.
type UsageAction string

const (
	ActionLogin           UsageAction = "login"
	ActionLogout          UsageAction = "logout"
	ActionRefresh         UsageAction = "refresh"
	ActionAdminLoginAs    UsageAction = "admin_login_as"
	ActionCreateCourse    UsageAction = "create_course"
	ActionCompleteChapter UsageAction = "complete_chapter"
	ActionChat            UsageAction = "chat"
	ActionGradeQuestion   UsageAction = "grade_question"
	ActionSearch          UsageAction = "search"
	ActionSiteVisible     UsageAction = "site_visible"
	ActionSiteHidden      UsageAction = "site_hidden"
)

var validActions = map[UsageAction]struct{}{
	ActionLogin: {}, ActionLogout: {}, ActionRefresh: {}, ActionAdminLoginAs: {},
	ActionCreateCourse: {}, ActionCompleteChapter: {}, ActionChat: {},
	ActionGradeQuestion: {}, ActionSearch: {}, ActionSiteVisible: {}, ActionSiteHidden: {},
}

func (a UsageAction) Valid() bool {
	_, ok := validActions[a]
	return ok
}

// UsageEvent is an append-only ledger row; it is never updated or deleted.
type UsageEvent struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	CourseID  *int64      `json:"course_id,omitempty"`
	ChapterID *int64      `json:"chapter_id,omitempty"`
	Action    UsageAction `json:"action"`
	Details   *string     `json:"details,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
