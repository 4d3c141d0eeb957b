package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_performance_district_period ON mgnrega_performance(district_id, financial_year DESC, fiscal_month DESC)",
			"CREATE INDEX IF NOT EXISTS idx_districts_state_name ON districts(state_code, district_name)",
			"CREATE INDEX IF NOT EXISTS idx_health_checked_at ON api_health_log(checked_at DESC)",
		}

		for _, idx := range indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return err
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			"DROP INDEX IF EXISTS idx_performance_district_period",
			"DROP INDEX IF EXISTS idx_districts_state_name",
			"DROP INDEX IF EXISTS idx_health_checked_at",
		}

		for _, idx := range indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return err
			}
		}

		return nil
	})
}
