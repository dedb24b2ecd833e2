package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"rxops/internal/config"
	"rxops/internal/repository/postgres"
	"rxops/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	clearData := flag.Bool("clear-data", false, "Delete all documents, nodes and completions before seeding")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// Destructive flags stay out of production
	if cfg.Environment == "prod" && *clearData {
		log.Fatalf("BLOCKED: --clear-data is not allowed in production")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if cfg.TablePrefix == "" {
		if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	tables := postgres.NewTableNames(cfg.TablePrefix)
	seeder := seed.NewSOPSeeder(pool, tables, logger)

	if *clearData {
		logger.Info("clearing existing data")
		if err := seeder.ClearAll(ctx); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
	}

	if err := seeder.SeedAll(ctx); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	logger.Info("seed complete")
}
