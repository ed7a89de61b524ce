// Package state implements the State Service (C6): a process-local mutable
// working set fed into agent calls during one course's generation, keyed
// by (user, course). It is explicitly not shared across hosts — the
// Orchestrator that owns a course's generation task must run the whole
// task on one worker.
package state

import "sync"

// WorkingSet accumulates everything the agent pipeline needs across one
// course's generation: the original request parameters plus what prior
// agent stages produced, so later stages don't re-derive it.
type WorkingSet struct {
	Query      string
	TimeHours  int
	Language   string
	Difficulty string
	Chapters   []ChapterState
	ChaptersStr string
	Code       map[string]string
	Errors     []string
}

// ChapterState is one chapter's accumulated generation state.
type ChapterState struct {
	Caption string
	Content []string
	Time    int
}

type key struct {
	userID   int64
	courseID int64
}

// Service is the single-owner map every course generation task reads and
// writes through. One Service instance is shared per process.
type Service struct {
	mu   sync.Mutex
	sets map[key]*WorkingSet
}

func New() *Service {
	return &Service{sets: make(map[key]*WorkingSet)}
}

// Init creates (or resets) the working set for (userID, courseID).
func (s *Service) Init(userID, courseID int64, query string, timeHours int, language, difficulty string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sets[key{userID, courseID}] = &WorkingSet{
		Query:      query,
		TimeHours:  timeHours,
		Language:   language,
		Difficulty: difficulty,
		Code:       make(map[string]string),
	}
}

// Get returns a copy-free pointer to the working set, or nil if Init was
// never called for this key — callers hold the Service's lock for the
// duration of any mutation via SaveChapters/SetCode to avoid torn reads.
func (s *Service) Get(userID, courseID int64) *WorkingSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[key{userID, courseID}]
}

// SaveChapters appends newly planned chapters to both the structured
// Chapters slice and the flattened ChaptersStr the Planner/Explainer
// prompts reference, atomically with respect to other mutators.
func (s *Service) SaveChapters(userID, courseID int64, chapters []ChapterState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.sets[key{userID, courseID}]
	if !ok {
		return
	}
	ws.Chapters = append(ws.Chapters, chapters...)
	for _, c := range chapters {
		ws.ChaptersStr += c.Caption + "\n"
	}
}

// SetCode records one chapter's generated component source under name,
// used by the code-review loop to look up the current candidate.
func (s *Service) SetCode(userID, courseID int64, name, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.sets[key{userID, courseID}]
	if !ok {
		return
	}
	ws.Code[name] = source
}

// AppendError records a non-fatal error surfaced during generation, kept
// for the task's final diagnostic trail.
func (s *Service) AppendError(userID, courseID int64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.sets[key{userID, courseID}]
	if !ok {
		return
	}
	ws.Errors = append(ws.Errors, message)
}

// Clear discards the working set once the task reaches a terminal state.
func (s *Service) Clear(userID, courseID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, key{userID, courseID})
}
