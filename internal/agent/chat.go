package agent

import (
	"context"
	"fmt"

	"coursesynth.app/api/common/llm"
)

// Chunk is one element of a ChatAgent's lazy streamed response.
type Chunk struct {
	Text    string
	IsFinal bool
	Err     error
}

// ChatAgent is the streaming variant bound to a persistent session keyed by
// (app_name, user, chapter_id). It does not itself talk SSE wire format —
// internal/http/handler/chat.go adapts its Chunk stream to
// github.com/Tangerg/lynx/sse for the HTTP transport.
type ChatAgent struct {
	client llm.AgentClient
	system string
	cfg    RetryConfig
}

func NewChatAgent(client llm.AgentClient, systemPrompt string, cfg RetryConfig) *ChatAgent {
	return &ChatAgent{client: client, system: systemPrompt, cfg: cfg}
}

// Stream sends history+prompt and emits Chunks on the returned channel. The
// underlying llm.AgentClient is non-streaming at the transport level (the
// teacher's common/llm exposes a single ChatWithTools call), so the full
// response is split into chunks here; real token-level streaming transport
// is a drop-in swap behind the same llm.AgentClient interface.
func (a *ChatAgent) Stream(ctx context.Context, session Session, history []llm.Message, prompt string) <-chan Chunk {
	out := make(chan Chunk, 4)

	go func() {
		defer close(out)

		var resp *llm.AgentResponse
		err := runWithRetry(ctx, a.cfg, func(ctx context.Context) error {
			messages := make([]llm.Message, 0, len(history)+2)
			if a.system != "" {
				messages = append(messages, llm.Message{Role: "system", Content: a.system})
			}
			messages = append(messages, history...)
			messages = append(messages, llm.Message{Role: "user", Content: prompt})

			r, callErr := a.client.ChatWithTools(ctx, llm.AgentRequest{Messages: messages})
			if callErr != nil {
				return fmt.Errorf("%w: %v", ErrTransient, callErr)
			}
			if r.Content == "" {
				return fmt.Errorf("%w: empty response", ErrTransient)
			}
			resp = r
			return nil
		})
		if err != nil {
			select {
			case out <- Chunk{Err: err, IsFinal: true}:
			case <-ctx.Done():
			}
			return
		}

		for _, piece := range chunkText(resp.Content, 64) {
			select {
			case out <- Chunk{Text: piece}:
			case <-ctx.Done():
				return
			}
		}

		select {
		case out <- Chunk{IsFinal: true}:
		case <-ctx.Done():
		}
	}()

	return out
}

// chunkText splits s into runes-safe pieces of at most n runes, preserving
// producer order.
func chunkText(s string, n int) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	var chunks []string
	for i := 0; i < len(runes); i += n {
		end := i + n
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
