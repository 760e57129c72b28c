package repository

import (
	"context"
	"fmt"
	"log/slog"

	"pawfect/internal/config"
	"pawfect/internal/domain/repositories"
	"pawfect/internal/repository/postgres"
	"pawfect/internal/repository/sqlite"
)

// Open connects the conversation store selected by cfg.DatabaseDriver and
// makes sure its schema exists. The returned close func releases the connection.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.ConversationStore, func(), error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, nil, err
		}

		logger.Info("database connected",
			"driver", cfg.DatabaseDriver,
			"max_conns", pool.Config().MaxConns,
			"table_prefix", cfg.TablePrefix,
		)

		store := postgres.NewConversationStore(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		})
		return store, pool.Close, nil

	case config.DriverSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close sqlite store", "error", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}
