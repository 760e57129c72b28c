package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the conversation tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         UUID PRIMARY KEY,
				owner_id   TEXT NOT NULL,
				title      VARCHAR(255) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.Conversations),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS idx_%s_owner_updated
				ON %s (owner_id, updated_at DESC, id DESC)`, tables.Conversations, tables.Conversations),
		// seq breaks created_at ties so reads return messages in append order
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id              UUID PRIMARY KEY,
				seq             BIGSERIAL NOT NULL,
				conversation_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				role            TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
				content         TEXT NOT NULL,
				created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.Messages, tables.Conversations),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS idx_%s_conversation_created
				ON %s (conversation_id, created_at, seq)`, tables.Messages, tables.Messages),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops the conversation tables. Used by the seed tool only.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	query := fmt.Sprintf(`DROP TABLE IF EXISTS %s, %s CASCADE`, tables.Messages, tables.Conversations)
	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}
