package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"coursesynth.app/api/common/llm"
	"coursesynth.app/api/common/logger"
	"coursesynth.app/api/common/vectorindex"
	"coursesynth.app/api/core/config"
	"coursesynth.app/api/core/db"
	"coursesynth.app/api/core/db/migrate"
	"coursesynth.app/api/internal/agent"
	"coursesynth.app/api/internal/ledger"
	"coursesynth.app/api/internal/orchestrator"
	"coursesynth.app/api/internal/queue"
	"coursesynth.app/api/internal/retrieval"
	"coursesynth.app/api/internal/state"
	"coursesynth.app/api/internal/store"
	"coursesynth.app/api/internal/taskregistry"
	"coursesynth.app/api/internal/validator"
	"coursesynth.app/api/internal/worker"
	"github.com/redis/go-redis/v9"
)

const (
	consumerGroup     = "coursesynth-workers"
	reclaimMinIdle    = 5 * time.Minute
	reclaimInterval   = time.Minute
	reclaimBatchSize  = int64(10)
	consumerBatchSize = int64(1)
	consumerBlock     = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	logger.Setup(cfg)

	hostname, _ := os.Hostname()
	consumerName := "worker-" + hostname

	slog.InfoContext(ctx, "coursesynth worker starting",
		"env", cfg.Env,
		"consumer_group", consumerGroup,
		"consumer_name", consumerName)

	if err := migrate.Up(cfg.DB.DSN); err != nil {
		slog.ErrorContext(ctx, "failed to apply migrations", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
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
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Redis.Stream)

	exec := database.Pool()
	stores := store.New(exec)
	courseLedger := ledger.New(exec)
	tasks := taskregistry.New(exec)
	syntaxValidator := validator.New(cfg.SyntaxValidatorURL)

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
		0, // chapter fan-out is unbounded
	)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Redis.Stream,
		Group:        consumerGroup,
		Consumer:     consumerName,
		DLQStream:    cfg.Redis.DLQ,
		BatchSize:    consumerBatchSize,
		Block:        consumerBlock,
		MaxAttempts:  3,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	w := worker.New(consumer, tasks, orch, worker.Config{MaxAttempts: 3})

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Redis.Stream,
		Group:     consumerGroup,
		Consumer:  consumerName + "-reclaimer",
		MinIdle:   reclaimMinIdle,
		Interval:  reclaimInterval,
		BatchSize: reclaimBatchSize,
	}, consumer, func(ctx context.Context, msg queue.Message) error {
		return w.ProcessMessage(ctx, msg)
	})

	sweeper := worker.NewSweeper(stores.Courses())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		if err := w.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "worker loop exited", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		reclaimer.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	slog.InfoContext(ctx, "worker running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutdown signal received, initiating graceful shutdown...")
	cancel()
	w.Stop()
	reclaimer.Stop()
	sweeper.Stop()

	shutdownComplete := make(chan struct{})
	go func() {
		wg.Wait()
		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		slog.InfoContext(ctx, "graceful shutdown completed")
	case <-time.After(shutdownTimeout):
		slog.WarnContext(ctx, "shutdown timeout exceeded, forcing exit", "timeout", shutdownTimeout)
	}

	slog.InfoContext(ctx, "closing redis connection")
	if err := redisClient.Close(); err != nil {
		slog.ErrorContext(ctx, "redis close error", "error", err)
	}

	slog.InfoContext(ctx, "closing database connection")
	database.Close()

	slog.InfoContext(ctx, "shutdown complete")
}

// buildAgents constructs the six agents the Generation Orchestrator drives.
// Info, Planner, Tester and Grader need schema-constrained JSON output;
// Image and Explainer need free-form text (a raw URL, a component source
// string) so they run on the tool-calling AgentClient instead.
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
