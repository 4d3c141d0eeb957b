package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var Migrations = migrate.NewMigrations()

// RunMigrations runs all pending migrations.
func RunMigrations(ctx context.Context, db *bun.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	migrator := migrate.NewMigrator(db, Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		logger.Info("no new migrations to run")
		return nil
	}

	logger.Info("migrated", zap.String("group", group.String()))
	return nil
}
