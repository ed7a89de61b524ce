package model

// QuestionKind disambiguates the two shapes a Tester-generated question can
// take. The decision is tagged at persistence time by presence of the MC
// option fields, never inferred from whitespace heuristics on the question
// text (see DESIGN.md, Open Questions).
type QuestionKind string

const (
	QuestionKindMC QuestionKind = "MC"
	QuestionKindOT QuestionKind = "OT"
)

// PracticeQuestion belongs to exactly one Chapter.
type PracticeQuestion struct {
	ID             int64        `json:"id"`
	ChapterID      int64        `json:"chapter_id"`
	Kind           QuestionKind `json:"type"`
	Question       string       `json:"question"`
	AnswerA        *string      `json:"answer_a,omitempty"`
	AnswerB        *string      `json:"answer_b,omitempty"`
	AnswerC        *string      `json:"answer_c,omitempty"`
	AnswerD        *string      `json:"answer_d,omitempty"`
	CorrectAnswer  string       `json:"correct_answer"`
	Explanation    *string      `json:"explanation,omitempty"`
	UsersAnswer    *string      `json:"users_answer,omitempty"`
	PointsReceived *int         `json:"points_received,omitempty"`
	Feedback       *string      `json:"feedback,omitempty"`
}

// HasMCOptions reports whether all four multiple-choice option fields are
// present, which is the sole signal used to tag a generated question as MC
// vs OT at persistence time.
func (q *PracticeQuestion) HasMCOptions() bool {
	return q.AnswerA != nil && q.AnswerB != nil && q.AnswerC != nil && q.AnswerD != nil
}

// GeneratedQuestion is the raw shape returned by the Tester agent's initial
// structured pass, before code-review repair and MC/OT tagging.
type GeneratedQuestion struct {
	Question      string  `json:"question"`
	AnswerA        *string `json:"answer_a,omitempty"`
	AnswerB        *string `json:"answer_b,omitempty"`
	AnswerC        *string `json:"answer_c,omitempty"`
	AnswerD        *string `json:"answer_d,omitempty"`
	CorrectAnswer  string  `json:"correct_answer"`
	Explanation    string  `json:"explanation,omitempty"`
	IsComponentSrc bool    `json:"is_component_src"`
}
