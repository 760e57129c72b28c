package repositories

import (
	"context"
	"time"

	"pawfect/internal/domain/models"
)

// ConversationRepository defines owner-scoped access to conversations.
// Every lookup filters by owner in the query itself, so a conversation that
// belongs to someone else is indistinguishable from one that does not exist.
type ConversationRepository interface {
	// CreateConversation inserts a conversation and fills in its ID
	// (and timestamps when they are zero).
	CreateConversation(ctx context.Context, conv *models.Conversation) error

	// GetConversation retrieves a conversation by ID (scoped to owner)
	// Returns domain.ErrNotFound if not found
	GetConversation(ctx context.Context, id, ownerID string) (*models.Conversation, error)

	// ListConversations returns the owner's conversations, most recently
	// updated first (ties broken by id descending). Returns an empty slice if none.
	ListConversations(ctx context.Context, ownerID string) ([]models.Conversation, error)

	// TouchConversation sets updated_at. Returns domain.ErrNotFound if the
	// conversation does not resolve under ownerID.
	TouchConversation(ctx context.Context, id, ownerID string, at time.Time) error

	// DeleteConversation removes the conversation and all of its messages.
	// Returns domain.ErrNotFound if not found
	DeleteConversation(ctx context.Context, id, ownerID string) error
}

// MessageRepository defines append-only access to conversation messages.
type MessageRepository interface {
	// AppendMessage inserts a message and fills in its ID.
	// Rejects roles that may not be persisted (system).
	AppendMessage(ctx context.Context, msg *models.Message) error

	// ListMessages returns a conversation's messages ordered by created_at
	// ascending, then by insertion order.
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
}

// ConversationStore is the full persistence contract used by the orchestrator.
type ConversationStore interface {
	ConversationRepository
	MessageRepository
}
