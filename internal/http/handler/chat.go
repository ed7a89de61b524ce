package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"coursesynth.app/api/internal/http/dto"
	"coursesynth.app/api/internal/http/middleware"
	"coursesynth.app/api/internal/service"
	"github.com/Tangerg/lynx/sse"
	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chat    *service.ChatService
	encoder *sse.Encoder
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat, encoder: sse.NewEncoder()}
}

// Stream drains the chat agent's Chunk channel onto an SSE response,
// following the framing: one data frame per chunk, a "[DONE]"
// terminator, and an "error" event if the stream fails mid-flight. The
// full assistant reply is persisted once the stream finishes.
func (h *ChatHandler) Stream(c *gin.Context) {
	chapterID, err := strconv.ParseInt(c.Param("chapter_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chapter id"})
		return
	}

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.UserID(c)
	ctx := c.Request.Context()

	chunks, courseID, err := h.chat.Stream(ctx, chapterID, userID, req.Message)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	var reply strings.Builder
	c.Stream(func(w io.Writer) bool {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				h.writeFrame(c, w, &sse.Message{Data: []byte("[DONE]")})
				return false
			}
			if chunk.Err != nil {
				slog.ErrorContext(ctx, "chat stream error", "error", chunk.Err, "chapter_id", chapterID)
				h.writeFrame(c, w, &sse.Message{Event: "error", Data: marshalFrame(map[string]string{"error": chunk.Err.Error()})})
				return false
			}

			reply.WriteString(chunk.Text)
			h.writeFrame(c, w, &sse.Message{Data: marshalFrame(map[string]string{"content": chunk.Text})})
			if chunk.IsFinal {
				h.writeFrame(c, w, &sse.Message{Data: []byte("[DONE]")})
				return false
			}
			return true
		case <-ctx.Done():
			return false
		}
	})

	if err := h.chat.PersistAssistantReply(ctx, courseID, userID, reply.String()); err != nil {
		slog.ErrorContext(ctx, "failed to persist assistant reply", "error", err, "chapter_id", chapterID)
	}
}

func (h *ChatHandler) writeFrame(c *gin.Context, w io.Writer, msg *sse.Message) {
	b, err := h.encoder.Encode(msg)
	if err != nil {
		return
	}
	_, _ = w.Write(b)
	c.Writer.Flush()
}

// marshalFrame encodes an SSE data payload with encoding/json so arbitrary
// LLM-generated text (carriage returns, tabs, other control bytes) always
// produces valid JSON on the wire. On the (unreachable in practice, since
// the input is a map[string]string) marshal error it falls back to an
// empty object rather than writing malformed JSON to the stream.
func marshalFrame(v map[string]string) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return b
}
