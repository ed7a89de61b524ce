// Package agent implements the Agent Runtime: the retry/session
// envelope shared by every LLM-backed call in the generation pipeline. It
// is built on top of common/llm's transport-level clients and mirrors a
// retry/claim discipline similar to a task queue's EngagementError{Retryable}
// pattern, at a per-call granularity instead of a per-task one.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coursesynth.app/api/common/llm"
)

// Status mirrors the spec's {status:"success"|"error"} response envelope.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the common envelope every agent call returns. Explanation
// carries the StandardAgent's free text; Message carries the error when
// Status is StatusError.
type Result struct {
	Status      Status
	Explanation string
	Message     string
}

// RetryConfig controls the common retry loop: wait RetryDelay and retry on
// transient failure, up to 1+MaxRetries total attempts.
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 1, RetryDelay: 2 * time.Second}
}

// ErrTransient marks a failure the retry loop should retry: an exception,
// an empty response, a JSON parse failure, or an agent-signaled escalate.
var ErrTransient = errors.New("transient agent failure")

// Session keys a sequence of agent events to (app_name, user, chapter_id).
// Sessions are intentionally lightweight and short-lived; the State Service
// (internal/state) — not this struct — carries cross-call knowledge.
type Session struct {
	AppName   string
	UserID    int64
	ChapterID int64
}

func (s Session) Key() string {
	return fmt.Sprintf("%s:%d:%d", s.AppName, s.UserID, s.ChapterID)
}

// runWithRetry is the common contract every flavor below builds on: call fn
// up to 1+cfg.MaxRetries times, retrying only on errors wrapping
// ErrTransient, waiting cfg.RetryDelay between attempts.
func runWithRetry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	attempts := 1 + cfg.MaxRetries
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !errors.Is(err, ErrTransient) {
			return err
		}

		if attempt == attempts {
			break
		}

		slog.WarnContext(ctx, "agent call failed, retrying",
			"attempt", attempt, "max_attempts", attempts, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}

	return fmt.Errorf("agent call failed after %d attempts: %w", attempts, lastErr)
}

// StandardAgent produces unstructured text completions.
type StandardAgent struct {
	client llm.AgentClient
	system string
	cfg    RetryConfig
}

func NewStandardAgent(client llm.AgentClient, systemPrompt string, cfg RetryConfig) *StandardAgent {
	return &StandardAgent{client: client, system: systemPrompt, cfg: cfg}
}

// Run sends one user prompt (with any preceding tool-calling history in
// extraMessages) and returns the final textual response.
func (a *StandardAgent) Run(ctx context.Context, session Session, prompt string, extraMessages []llm.Message, tools []llm.Tool) Result {
	var out Result

	err := runWithRetry(ctx, a.cfg, func(ctx context.Context) error {
		messages := make([]llm.Message, 0, len(extraMessages)+2)
		if a.system != "" {
			messages = append(messages, llm.Message{Role: "system", Content: a.system})
		}
		messages = append(messages, extraMessages...)
		messages = append(messages, llm.Message{Role: "user", Content: prompt})

		resp, err := a.client.ChatWithTools(ctx, llm.AgentRequest{Messages: messages, Tools: tools})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		if resp.Content == "" && len(resp.ToolCalls) == 0 {
			return fmt.Errorf("%w: empty response", ErrTransient)
		}

		out = Result{Status: StatusSuccess, Explanation: resp.Content}
		return nil
	})
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}

	return out
}

// StructuredAgent produces output constrained by a declared JSON schema.
type StructuredAgent struct {
	client llm.Client
	system string
	schema any
	name   string
	cfg    RetryConfig
}

func NewStructuredAgent(client llm.Client, systemPrompt, schemaName string, schema any, cfg RetryConfig) *StructuredAgent {
	return &StructuredAgent{client: client, system: systemPrompt, schema: schema, name: schemaName, cfg: cfg}
}

// Run parses the model's JSON response into out. A parse failure is
// transient and retried per the common contract.
func (a *StructuredAgent) Run(ctx context.Context, prompt string, out any) Result {
	err := runWithRetry(ctx, a.cfg, func(ctx context.Context) error {
		_, err := a.client.Chat(ctx, llm.Request{
			SystemPrompt: a.system,
			UserPrompt:   prompt,
			SchemaName:   a.name,
			Schema:       a.schema,
		}, out)
		if err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				return fmt.Errorf("%w: %v", ErrTransient, err)
			}
			if llm.IsRetryable(ctx, err) {
				return fmt.Errorf("%w: %v", ErrTransient, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}

	return Result{Status: StatusSuccess}
}
