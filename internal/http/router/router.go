package router

import (
	"coursesynth.app/api/core/config"
	"coursesynth.app/api/internal/http/handler"
	"coursesynth.app/api/internal/http/middleware"
	"coursesynth.app/api/internal/service"
	"coursesynth.app/api/internal/store"
	"github.com/gin-gonic/gin"
)

type Config struct {
	Cookies     config.CookieConfig
	JWT         config.JWTConfig
	FrontendURL string
}

func SetupRoutes(engine *gin.Engine, services *service.Services, stores *store.Stores, cfg Config) {
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authHandler := handler.NewAuthHandler(services.Auth, cfg.Cookies, cfg.JWT, cfg.FrontendURL)
	AuthRouter(engine.Group("/auth"), authHandler)

	requireAuth := middleware.RequireAuth(services.Auth)

	userHandler := handler.NewUserHandler(services.User)
	UserRouter(engine.Group("/users", requireAuth), userHandler, stores.Users())

	chapterHandler := handler.NewChapterHandler(services.Chapter)
	courseHandler := handler.NewCourseHandler(services.Course)
	CourseRouter(engine.Group("/courses", requireAuth), courseHandler, chapterHandler)

	questionHandler := handler.NewQuestionHandler(services.Question)
	QuestionRouter(engine.Group("/chapters", requireAuth), questionHandler)

	chatHandler := handler.NewChatHandler(services.Chat)
	ChatRouter(engine.Group("/chat", requireAuth), chatHandler)

	filesHandler := handler.NewFilesHandler(services.Files)
	FilesRouter(engine.Group("/files", requireAuth), filesHandler)

	searchHandler := handler.NewSearchHandler(services.Search)
	SearchRouter(engine.Group("/search", requireAuth), searchHandler)

	statisticsHandler := handler.NewStatisticsHandler(services.Statistics)
	StatisticsRouter(engine.Group("/statistics"), statisticsHandler)
}
