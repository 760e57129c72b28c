// Package seed loads demo conversations for local development.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pawfect/internal/domain/models"
	"pawfect/internal/domain/repositories"
	"pawfect/internal/service/conversation"
)

// demoConversation is one seeded thread; turns alternate user/assistant starting with user.
type demoConversation struct {
	turns []string
}

var demoConversations = []demoConversation{
	{turns: []string{
		"My dog ate a grape, should I be worried?",
		"Grapes can be toxic to dogs even in small amounts. Call your veterinarian or a pet poison hotline right away and watch for vomiting, lethargy or reduced urination.",
	}},
	{turns: []string{
		"How often should I brush my cat's teeth?",
		"Daily brushing is ideal, but a few times a week still helps. Use a toothpaste made for cats, never human toothpaste.",
		"What if she won't let me?",
		"Start slowly: let her lick the toothpaste off your finger for a few days, then touch her gums briefly. Dental treats and water additives can help in the meantime.",
	}},
	{turns: []string{
		"Is it normal for my puppy to sleep 18 hours a day?",
		"Yes. Puppies commonly sleep 18 to 20 hours a day while they grow. Check with your vet if the sleep comes with poor appetite, weakness or diarrhea.",
	}},
}

// ConversationSeeder writes demo conversations through the conversation store.
type ConversationSeeder struct {
	store  repositories.ConversationStore
	logger *slog.Logger
	now    func() time.Time
}

// NewConversationSeeder creates a new seeder
func NewConversationSeeder(store repositories.ConversationStore, logger *slog.Logger) *ConversationSeeder {
	return &ConversationSeeder{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SeedDemoConversations creates the demo threads for ownerID and returns their ids.
// Titles follow the same rule as conversations started through the API.
func (s *ConversationSeeder) SeedDemoConversations(ctx context.Context, ownerID string) ([]string, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	ids := make([]string, 0, len(demoConversations))
	for _, demo := range demoConversations {
		id, err := s.seedOne(ctx, ownerID, demo)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}

	s.logger.Info("demo conversations seeded", "owner_id", ownerID, "count", len(ids))
	return ids, nil
}

func (s *ConversationSeeder) seedOne(ctx context.Context, ownerID string, demo demoConversation) (string, error) {
	start := s.now()
	conv := &models.Conversation{
		OwnerID:   ownerID,
		Title:     conversation.DeriveTitle(demo.turns[0]),
		CreatedAt: start,
		UpdatedAt: start,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}

	at := start
	for i, content := range demo.turns {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		// Distinct timestamps keep the seeded order stable on every store
		at = at.Add(time.Millisecond)
		msg := &models.Message{
			ConversationID: conv.ID,
			Role:           role,
			Content:        content,
			CreatedAt:      at,
		}
		if err := s.store.AppendMessage(ctx, msg); err != nil {
			return "", fmt.Errorf("append message %d: %w", i, err)
		}
	}

	if err := s.store.TouchConversation(ctx, conv.ID, ownerID, at); err != nil {
		return "", fmt.Errorf("touch conversation: %w", err)
	}
	return conv.ID, nil
}
