package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursesynth.app/api/common/id"
	"coursesynth.app/api/common/llm"
	"coursesynth.app/api/common/logger"
	"coursesynth.app/api/common/otel"
	"coursesynth.app/api/common/vectorindex"
	"coursesynth.app/api/core/config"
	"coursesynth.app/api/core/db"
	"coursesynth.app/api/core/db/migrate"
	"coursesynth.app/api/internal/agent"
	httpmw "coursesynth.app/api/internal/http/middleware"
	httprouter "coursesynth.app/api/internal/http/router"
	"coursesynth.app/api/internal/ledger"
	"coursesynth.app/api/internal/orchestrator"
	"coursesynth.app/api/internal/queue"
	"coursesynth.app/api/internal/retrieval"
	"coursesynth.app/api/internal/search"
	"coursesynth.app/api/internal/service"
	"coursesynth.app/api/internal/state"
	"coursesynth.app/api/internal/store"
	"coursesynth.app/api/internal/taskregistry"
	"coursesynth.app/api/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "service", cfg.OTel.ServiceName)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "coursesynth api starting", "env", cfg.Env)

	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	if err := migrate.Up(cfg.DB.DSN); err != nil {
		slog.ErrorContext(ctx, "failed to apply migrations", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Redis.Stream)

	producer := queue.NewRedisProducer(redisClient, cfg.Redis.Stream)
	defer producer.Close()

	exec := database.Pool()
	stores := store.New(exec)
	courseLedger := ledger.New(exec)
	tasks := taskregistry.New(exec)
	syntaxValidator := validator.New(cfg.SyntaxValidatorURL)
	searchSvc := search.New(cfg.Search.TypesenseHost, cfg.Search.TypesensePort, cfg.Search.TypesenseAPIKey)

	embedder, err := vectorindex.NewOpenAIEmbedder(cfg.LLM.APIKey, "", cfg.Vector.EmbeddingModel, cfg.Vector.EmbeddingDims)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create embedder", "error", err)
		os.Exit(1)
	}

	index, err := vectorindex.New(cfg.Vector.Host, cfg.Vector.Port, embedder, cfg.Vector.CollectionPrefix, cfg.Vector.EmbeddingDims)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create vector index", "error", err)
		os.Exit(1)
	}

	retrievalSvc := retrieval.New(index)
	stateSvc := state.New()

	agents, err := buildAgents(cfg.LLM)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build agents", "error", err)
		os.Exit(1)
	}

	orch := orchestrator.New(
		agents,
		syntaxValidator,
		retrievalSvc,
		stateSvc,
		stores,
		courseLedger,
		orchestrator.QuotaConfig{
			MaxCourseCreations: cfg.Quota.MaxCourseCreations,
			MaxPresentCourses:  cfg.Quota.MaxPresentCourses,
		},
		0,
	)

	chatClient, err := llm.NewAgentClient(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.ChatModel,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create chat llm client", "error", err)
		os.Exit(1)
	}
	chatAgent := agent.NewChatAgent(chatClient, chatSystemPrompt, agent.RetryConfig{
		MaxRetries: cfg.LLM.MaxRetries,
		RetryDelay: cfg.LLM.RetryDelay,
	})

	services, err := service.New(cfg, stores, courseLedger, tasks, orch, producer, searchSvc, chatAgent)
	if err != nil {
		slog.ErrorContext(ctx, "failed to wire services", "error", err)
		os.Exit(1)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if cfg.OTel.Enabled() {
		engine.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	engine.Use(httpmw.Recovery())
	engine.Use(httpmw.Logger())

	httprouter.SetupRoutes(engine, services, stores, httprouter.Config{
		Cookies:     cfg.Cookie,
		JWT:         cfg.JWT,
		FrontendURL: cfg.DashboardURL,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutdown signal received, shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// buildAgents constructs the six agents the Generation Orchestrator drives.
// Info, Planner, Tester and Grader need schema-constrained JSON output;
// Image and Explainer need free-form text so they run on the tool-calling
// AgentClient instead.
func buildAgents(cfg config.LLMConfig) (orchestrator.Agents, error) {
	agentClient, err := llm.NewAgentClient(llm.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Model:    cfg.StandardModel,
	})
	if err != nil {
		return orchestrator.Agents{}, err
	}

	structuredClient, err := llm.New(llm.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Model:    cfg.StructuredModel,
	})
	if err != nil {
		return orchestrator.Agents{}, err
	}

	retry := agent.RetryConfig{MaxRetries: cfg.MaxRetries, RetryDelay: cfg.RetryDelay}

	return orchestrator.Agents{
		Info: agent.NewStructuredAgent(structuredClient, infoSystemPrompt, "course_info",
			llm.GenerateSchema[orchestrator.InfoResult](), retry),
		Image: agent.NewStandardAgent(agentClient, imageSystemPrompt, retry),
		Planner: agent.NewStructuredAgent(structuredClient, plannerSystemPrompt, "course_plan",
			llm.GenerateSchema[orchestrator.PlannerResult](), retry),
		Explainer: agent.NewStandardAgent(agentClient, explainerSystemPrompt, retry),
		Tester: agent.NewStructuredAgent(structuredClient, testerSystemPrompt, "chapter_questions",
			llm.GenerateSchema[orchestrator.TesterResult](), retry),
		Grader: agent.NewStructuredAgent(structuredClient, graderSystemPrompt, "grade_result",
			llm.GenerateSchema[orchestrator.GraderResult](), retry),
	}, nil
}

const infoSystemPrompt = `You are a course cataloguer. Given source material, produce a short
marketable course title and a one-paragraph description. Never invent facts
not supported by the source material.`

const imageSystemPrompt = `You generate a single cover image for a course and respond with only the
resulting HTTPS image URL, nothing else.`

const plannerSystemPrompt = `You are a curriculum planner. Break the source material into an ordered
sequence of chapters, each with a caption, a handful of content bullets, an
estimated time in minutes, and a short note for the chapter's author agent.
Keep chapters focused; prefer more short chapters over fewer long ones.`

const explainerSystemPrompt = `You write a single interactive React component (as source code) that
teaches one chapter of a course using the provided reference passages.
Respond with only the component source, no prose, no markdown fences.`

const testerSystemPrompt = `You write practice questions for a course chapter: a mix of multiple-choice
and open-ended questions grounded in the provided reference passages. Some
open-ended questions may themselves be interactive components; mark those
with is_component_src.`

const graderSystemPrompt = `You grade a learner's free-text answer against a canonical answer. Award
0, 1, or 2 points and give a short, specific explanation.`

const chatSystemPrompt = `You are a helpful tutor embedded in a course chapter. Answer the learner's
questions using the chapter's content and the retrieved reference passages
provided to you. Stay focused on the course material; keep answers concise.`
