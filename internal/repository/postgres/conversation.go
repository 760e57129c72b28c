package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pawfect/internal/domain"
	"pawfect/internal/domain/models"
	"pawfect/internal/domain/repositories"
)

// PostgresConversationStore implements repositories.ConversationStore using PostgreSQL
type PostgresConversationStore struct {
	pool      *pgxpool.Pool
	tables    *TableNames
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewConversationStore creates a new PostgresConversationStore
func NewConversationStore(config *RepositoryConfig) repositories.ConversationStore {
	return &PostgresConversationStore{
		pool:      config.Pool,
		tables:    config.Tables,
		txManager: NewTransactionManager(config.Pool, config.Logger),
		logger:    config.Logger,
	}
}

// CreateConversation inserts a new conversation
func (r *PostgresConversationStore) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	now := time.Now().UTC()
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = conv.CreatedAt
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		conv.ID,
		conv.OwnerID,
		conv.Title,
		conv.CreatedAt,
		conv.UpdatedAt,
	).Scan(&conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}

	return nil
}

// GetConversation retrieves a conversation by ID, scoped to its owner
func (r *PostgresConversationStore) GetConversation(ctx context.Context, id, ownerID string) (*models.Conversation, error) {
	// A malformed id cannot name any conversation
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		SELECT id, owner_id, title, created_at, updated_at
		FROM %s
		WHERE id = $1 AND owner_id = $2
	`, r.tables.Conversations)

	var conv models.Conversation
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, ownerID).Scan(
		&conv.ID,
		&conv.OwnerID,
		&conv.Title,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	return &conv, nil
}

// ListConversations retrieves all conversations for an owner, most recently updated first
func (r *PostgresConversationStore) ListConversations(ctx context.Context, ownerID string) ([]models.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, title, created_at, updated_at
		FROM %s
		WHERE owner_id = $1
		ORDER BY updated_at DESC, id DESC
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(
			&conv.ID,
			&conv.OwnerID,
			&conv.Title,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	return conversations, nil
}

// TouchConversation updates updated_at only; the title is never rewritten
func (r *PostgresConversationStore) TouchConversation(ctx context.Context, id, ownerID string, at time.Time) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET updated_at = $1
		WHERE id = $2 AND owner_id = $3
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, at, id, ownerID)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteConversation removes a conversation and its messages in one transaction
func (r *PostgresConversationStore) DeleteConversation(ctx context.Context, id, ownerID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	return r.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		executor := GetExecutor(txCtx, r.pool)

		// Lock the row so a concurrent append cannot slip in between the deletes
		lockQuery := fmt.Sprintf(`
			SELECT id FROM %s
			WHERE id = $1 AND owner_id = $2
			FOR UPDATE
		`, r.tables.Conversations)

		var lockedID string
		if err := executor.QueryRow(txCtx, lockQuery, id, ownerID).Scan(&lockedID); err != nil {
			if IsPgNoRowsError(err) {
				return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
			}
			return fmt.Errorf("lock conversation: %w", err)
		}

		deleteMessages := fmt.Sprintf(`DELETE FROM %s WHERE conversation_id = $1`, r.tables.Messages)
		result, err := executor.Exec(txCtx, deleteMessages, id)
		if err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		messageCount := result.RowsAffected()

		deleteConversation := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Conversations)
		if _, err := executor.Exec(txCtx, deleteConversation, id); err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}

		r.logger.Debug("conversation rows deleted",
			"conversation_id", id,
			"messages", messageCount,
		)
		return nil
	})
}

// AppendMessage inserts a message at the end of its conversation
func (r *PostgresConversationStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	if !msg.Role.IsPersistable() {
		return fmt.Errorf("append message: role %q cannot be stored: %w", msg.Role, domain.ErrValidation)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		msg.ID,
		msg.ConversationID,
		string(msg.Role),
		msg.Content,
		msg.CreatedAt,
	).Scan(&msg.CreatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("conversation %s: %w", msg.ConversationID, domain.ErrNotFound)
		}
		if IsPgCheckViolation(err) {
			return fmt.Errorf("append message: %w", domain.ErrValidation)
		}
		return fmt.Errorf("append message: %w", err)
	}

	return nil
}

// ListMessages retrieves a conversation's messages in append order
func (r *PostgresConversationStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if _, err := uuid.Parse(conversationID); err != nil {
		return []models.Message{}, nil
	}

	query := fmt.Sprintf(`
		SELECT id, conversation_id, role, content, created_at
		FROM %s
		WHERE conversation_id = $1
		ORDER BY created_at ASC, seq ASC
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var (
			msg  models.Message
			role string
		)
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&role,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = models.Role(role)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}
