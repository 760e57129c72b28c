package llm

import (
	"context"

	"pawfect/internal/domain/models"
)

// Gateway sends a conversation to a chat-completion endpoint and returns the reply.
// Implementations prepend the configured system prompt themselves; callers pass
// only user and assistant turns. A gateway holds no per-conversation state.
type Gateway interface {
	// Chat makes exactly one completion request.
	// Failures are reported as *domain.UpstreamError.
	Chat(ctx context.Context, messages []models.ChatMessage) (string, error)
}
