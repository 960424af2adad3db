package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/tradein-core/internal/infrastructure/config"
	"github.com/nerrad567/tradein-core/internal/infrastructure/database"
	"github.com/nerrad567/tradein-core/internal/infrastructure/logging"
)

const migrateUsage = "usage: tradein migrate up|down|status"

// runMigrate applies, rolls back or reports schema migrations without
// starting the service.
//
// Subcommands:
//   - up: apply every pending migration
//   - down: roll back the most recently applied migration
//   - status: log applied and pending versions
func runMigrate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%s", migrateUsage)
	}

	if err := loadEnvFile(); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logging.New(cfg.Logging, version)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	switch args[0] {
	case "up":
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database migrations complete")
	case "down":
		if err := db.MigrateDown(ctx); err != nil {
			return fmt.Errorf("rolling back migration: %w", err)
		}
		log.Info("latest migration rolled back")
	case "status":
		applied, pending, err := db.GetMigrationStatus(ctx)
		if err != nil {
			return fmt.Errorf("reading migration status: %w", err)
		}
		for _, m := range applied {
			log.Info("migration applied", "version", m.Version, "applied_at", m.AppliedAt)
		}
		for _, m := range pending {
			log.Info("migration pending", "version", m.Version, "name", m.Name)
		}
	default:
		return fmt.Errorf("unknown migrate command %q: %s", args[0], migrateUsage)
	}
	return nil
}
