package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pawfect/internal/domain"
	"pawfect/internal/domain/models"
	"pawfect/internal/domain/repositories"
	"pawfect/internal/domain/services"
	llmSvc "pawfect/internal/domain/services/llm"
)

// Service implements services.ConversationService.
//
// The gateway receives the history exactly as the caller sent it, not a copy
// reloaded from the store. Callers must echo back an accurate transcript; the
// store is only the durable record shown by GetConversation.
type Service struct {
	store   repositories.ConversationStore
	gateway llmSvc.Gateway
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates the conversation orchestrator
func NewService(
	store repositories.ConversationStore,
	gateway llmSvc.Gateway,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:   store,
		gateway: gateway,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ services.ConversationService = (*Service)(nil)

// SendMessage runs one chat turn. Writes are made in this order: conversation
// (new threads only), user message, assistant message, updated_at. Nothing is
// rolled back when a later step fails.
func (s *Service) SendMessage(ctx context.Context, req *services.SendMessageRequest, ownerID string) (*services.SendMessageResponse, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := validateSendMessageRequest(req); err != nil {
		return nil, domain.NewValidationError(err)
	}

	conv, err := s.resolveConversation(ctx, req, ownerID)
	if err != nil {
		return nil, err
	}

	newest := req.Messages[len(req.Messages)-1]
	userMsg := &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        newest.Content,
		CreatedAt:      s.now(),
	}
	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, domain.WrapStoreError("save user message", err)
	}

	reply, err := s.gateway.Chat(ctx, req.Messages)
	if err != nil {
		s.logger.Warn("llm gateway failed",
			"conversation_id", conv.ID,
			"user_id", ownerID,
			"error", err,
		)
		if !errors.Is(err, domain.ErrUpstream) {
			err = &domain.UpstreamError{Op: "chat", Err: err}
		}
		return nil, err
	}

	assistantMsg := &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        reply,
		CreatedAt:      s.now(),
	}
	if err := s.store.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, domain.WrapStoreError("save assistant message", err)
	}

	if err := s.store.TouchConversation(ctx, conv.ID, ownerID, s.now()); err != nil {
		return nil, domain.WrapStoreError("touch conversation", err)
	}

	s.logger.Info("chat turn completed",
		"conversation_id", conv.ID,
		"user_id", ownerID,
		"history_len", len(req.Messages),
	)

	return &services.SendMessageResponse{
		ConversationID: conv.ID,
		Message:        reply,
	}, nil
}

// resolveConversation finds the caller's conversation or starts a new one
// titled after the first message.
func (s *Service) resolveConversation(ctx context.Context, req *services.SendMessageRequest, ownerID string) (*models.Conversation, error) {
	if req.ConversationID != nil && strings.TrimSpace(*req.ConversationID) != "" {
		conv, err := s.store.GetConversation(ctx, *req.ConversationID, ownerID)
		if err != nil {
			return nil, domain.WrapStoreError("find conversation", err)
		}
		return conv, nil
	}

	now := s.now()
	conv := &models.Conversation{
		OwnerID:   ownerID,
		Title:     DeriveTitle(req.Messages[0].Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, domain.WrapStoreError("create conversation", err)
	}

	s.logger.Info("conversation created",
		"conversation_id", conv.ID,
		"user_id", ownerID,
	)
	return conv, nil
}

// ListConversations returns the caller's conversations, most recently active first
func (s *Service) ListConversations(ctx context.Context, ownerID string) ([]models.ConversationSummary, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}

	conversations, err := s.store.ListConversations(ctx, ownerID)
	if err != nil {
		return nil, domain.WrapStoreError("list conversations", err)
	}

	summaries := make([]models.ConversationSummary, 0, len(conversations))
	for i := range conversations {
		summaries = append(summaries, conversations[i].Summary())
	}
	return summaries, nil
}

// GetConversation returns a conversation with its messages reduced to {role, content}
func (s *Service) GetConversation(ctx context.Context, id, ownerID string) (*models.ConversationDetail, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}

	conv, err := s.store.GetConversation(ctx, id, ownerID)
	if err != nil {
		return nil, domain.WrapStoreError("find conversation", err)
	}

	stored, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, domain.WrapStoreError("list messages", err)
	}

	messages := make([]models.ChatMessage, 0, len(stored))
	for _, m := range stored {
		messages = append(messages, models.ChatMessage{Role: m.Role, Content: m.Content})
	}

	return &models.ConversationDetail{
		ID:        conv.ID,
		Title:     conv.Title,
		Messages:  messages,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}, nil
}

// DeleteConversation removes a conversation and its messages
func (s *Service) DeleteConversation(ctx context.Context, id, ownerID string) error {
	if ownerID == "" {
		return domain.ErrUnauthorized
	}

	if err := s.store.DeleteConversation(ctx, id, ownerID); err != nil {
		return domain.WrapStoreError(fmt.Sprintf("delete conversation %s", id), err)
	}

	s.logger.Info("conversation deleted",
		"conversation_id", id,
		"user_id", ownerID,
	)
	return nil
}
