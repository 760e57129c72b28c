package services

import (
	"context"

	"pawfect/internal/domain/models"
)

// ConversationService orchestrates chat turns between the caller, the
// conversation store and the LLM gateway. Every operation is scoped to the
// caller's identity; it never authenticates, it only filters by owner.
type ConversationService interface {
	// SendMessage resolves or creates the conversation, saves the newest user
	// turn, asks the LLM gateway for a reply using the caller-supplied history
	// and saves the reply.
	//
	// A gateway failure is returned as domain.ErrUpstream; writes made before
	// the call (a new conversation, the user message) are kept.
	SendMessage(ctx context.Context, req *SendMessageRequest, ownerID string) (*SendMessageResponse, error)

	// ListConversations returns the caller's conversations, most recently active first.
	ListConversations(ctx context.Context, ownerID string) ([]models.ConversationSummary, error)

	// GetConversation returns one conversation with its messages, oldest first.
	// Returns domain.ErrNotFound if it does not resolve under ownerID.
	GetConversation(ctx context.Context, id, ownerID string) (*models.ConversationDetail, error)

	// DeleteConversation removes a conversation and its messages.
	// Returns domain.ErrNotFound if it does not resolve under ownerID.
	DeleteConversation(ctx context.Context, id, ownerID string) error
}

// SendMessageRequest is the DTO for POST /api/chat.
// Messages is the full visible history; the last entry is the new user turn.
type SendMessageRequest struct {
	ConversationID *string              `json:"conversationId,omitempty"`
	Messages       []models.ChatMessage `json:"messages"`
}

// SendMessageResponse is returned after a successful chat turn.
type SendMessageResponse struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}
