package service

import (
	"context"
	"fmt"

	"coursesynth.app/api/common/llm"
	"coursesynth.app/api/internal/agent"
	"coursesynth.app/api/internal/ledger"
	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/store"
)

const chatHistoryLimit = 20

type ChatService struct {
	stores *store.Stores
	agent  *agent.ChatAgent
	ledger *ledger.Ledger
}

func NewChatService(stores *store.Stores, chatAgent *agent.ChatAgent, l *ledger.Ledger) *ChatService {
	return &ChatService{stores: stores, agent: chatAgent, ledger: l}
}

// Stream authorizes access to chapterID's course, persists the user's
// message, then returns the agent's Chunk stream; internal/http/handler's
// chat handler adapts those Chunks to the SSE wire format. The assistant's
// full reply is persisted by the caller once the stream reports IsFinal, so
// this method itself does not block on the whole response.
func (s *ChatService) Stream(ctx context.Context, chapterID, userID int64, message string) (<-chan agent.Chunk, int64, error) {
	chapter, err := s.stores.Chapters().GetByID(ctx, chapterID)
	if err != nil {
		return nil, 0, err
	}
	course, err := s.stores.Courses().GetByID(ctx, chapter.CourseID)
	if err != nil {
		return nil, 0, err
	}
	if course.OwnerID != userID && !course.IsPublic {
		return nil, 0, ErrForbidden
	}

	history, err := s.stores.ChatMessages().ListByCourse(ctx, course.ID, chatHistoryLimit)
	if err != nil {
		return nil, 0, err
	}

	if err := s.stores.ChatMessages().Create(ctx, &model.ChatMessage{
		CourseID: course.ID, UserID: userID, Role: model.ChatRoleUser, Content: message,
	}); err != nil {
		return nil, 0, err
	}
	_ = s.ledger.Log(ctx, userID, model.ActionChat, &course.ID, &chapterID, nil)

	session := agent.Session{AppName: "coursesynth", UserID: userID, ChapterID: chapterID}
	prompt := fmt.Sprintf("Chapter: %s\n%s\n\nLearner question: %s", chapter.Caption, chapter.Content, message)

	return s.agent.Stream(ctx, session, toLLMHistory(history), prompt), course.ID, nil
}

// PersistAssistantReply records the assistant's full response once a stream
// completes; called by the handler after draining the Chunk channel.
func (s *ChatService) PersistAssistantReply(ctx context.Context, courseID, userID int64, content string) error {
	if content == "" {
		return nil
	}
	return s.stores.ChatMessages().Create(ctx, &model.ChatMessage{
		CourseID: courseID, UserID: userID, Role: model.ChatRoleAssistant, Content: content,
	})
}

func toLLMHistory(messages []model.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == model.ChatRoleAssistant {
			role = "assistant"
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}
