// Package service is the API-facing orchestration layer: it adapts
// internal/store, internal/orchestrator, internal/search, internal/agent and
// internal/queue into the operations internal/http's handlers call, sitting
// between internal/http and the persistence layer the way a services layer
// typically sits in front of a generated query layer.
package service

import (
	"coursesynth.app/api/core/config"
	"coursesynth.app/api/internal/agent"
	"coursesynth.app/api/internal/ledger"
	"coursesynth.app/api/internal/orchestrator"
	"coursesynth.app/api/internal/queue"
	"coursesynth.app/api/internal/search"
	"coursesynth.app/api/internal/store"
	"coursesynth.app/api/internal/taskregistry"
)

// Services bundles every service the HTTP layer depends on, constructed
// once at startup and handed to internal/http/router.
type Services struct {
	Auth       *AuthService
	User       *UserService
	Course     *CourseService
	Chapter    *ChapterService
	Question   *QuestionService
	Files      *FilesService
	Chat       *ChatService
	Search     *SearchService
	Statistics *StatisticsService
}

// New wires every service from its dependencies. cfg carries the sub-configs
// (JWT, OAuth, Quota, Password) each service needs; everything else is
// already-constructed infrastructure from cmd/server's wiring.
func New(
	cfg config.Config,
	stores *store.Stores,
	courseLedger *ledger.Ledger,
	tasks *taskregistry.Registry,
	orch *orchestrator.Orchestrator,
	producer queue.Producer,
	searchSvc *search.Service,
	chatAgent *agent.ChatAgent,
) (*Services, error) {
	authSvc, err := NewAuthService(stores.Users(), stores.Sessions(), courseLedger, cfg.JWT, cfg.OAuth, cfg.Password)
	if err != nil {
		return nil, err
	}

	return &Services{
		Auth:       authSvc,
		User:       NewUserService(stores.Users(), cfg.Password),
		Course:     NewCourseService(stores, tasks, courseLedger, orchestrator.QuotaConfig{MaxCourseCreations: cfg.Quota.MaxCourseCreations, MaxPresentCourses: cfg.Quota.MaxPresentCourses}, producer, searchSvc),
		Chapter:    NewChapterService(stores, searchSvc),
		Question:   NewQuestionService(stores, orch),
		Files:      NewFilesService(stores),
		Chat:       NewChatService(stores, chatAgent, courseLedger),
		Search:     NewSearchService(searchSvc, stores),
		Statistics: NewStatisticsService(courseLedger),
	}, nil
}
