package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"ascend-backend/internal/shared/config"
	"ascend-backend/internal/shared/storage/db"
	"ascend-backend/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()
	cfg := config.Load()
	ctx := context.Background()

	opts := db.PoolFor(db.RoleCommand)
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	version, _ := db.MigrationVersion(ctx, sqlDB)
	telemetry.Info("migrate.done", map[string]any{"version": version})
}
