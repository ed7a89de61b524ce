package dto

// ChatRequest is POST /chat/{chapter_id}'s body. Images carries uploaded
// image ids the learner attached to the message; the chat agent is
// text-only, so image ids are accepted but not passed into the prompt.
type ChatRequest struct {
	Message string  `json:"message" binding:"required,min=1"`
	Images  []int64 `json:"images,omitempty"`
}

type SSEChunk struct {
	Content string `json:"content"`
}

type SSEError struct {
	Error string `json:"error"`
}
