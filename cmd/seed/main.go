package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"pawfect/internal/config"
	"pawfect/internal/repository"
	"pawfect/internal/repository/postgres"
	"pawfect/internal/repository/sqlite"
	"pawfect/internal/seed"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed conversations")
	demoOwner := flag.String("demo-owner", "", "Owner id (JWT subject) that receives the demo conversations")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run -drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()

	if *dropTables {
		log.Printf("Dropping conversation tables (driver: %s, prefix: %s)", cfg.DatabaseDriver, cfg.TablePrefix)
		if err := dropAllTables(ctx, cfg, logger); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	// Open ensures the schema
	store, closeStore, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open conversation store: %v", err)
	}
	defer closeStore()
	log.Println("Schema ready")

	if *schemaOnly {
		return
	}

	if *demoOwner == "" {
		log.Println("No -demo-owner given, skipping demo conversations")
		return
	}

	ids, err := seed.NewConversationSeeder(store, logger).SeedDemoConversations(ctx, *demoOwner)
	if err != nil {
		log.Fatalf("Failed to seed conversations: %v", err)
	}
	for _, id := range ids {
		log.Printf("Created conversation %s", id)
	}
	log.Println("Seeding complete")
}

func dropAllTables(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		// DropSchema drops and recreates the sqlite tables
		store, err := sqlite.NewStore(cfg.SQLitePath, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.DropSchema(ctx)
	default:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		return postgres.DropSchema(ctx, pool, postgres.NewTableNames(cfg.TablePrefix))
	}
}
