package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/mkoziy/mgnrega/dashboard/internal/models"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewCreateTable().Model((*models.District)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().
			Model((*models.PerformanceRecord)(nil)).
			IfNotExists().
			ForeignKey(`("district_id") REFERENCES "districts" ("id") ON DELETE CASCADE`).
			Exec(ctx); err != nil {
			return err
		}
		_, err := db.NewCreateTable().Model((*models.HealthLogEntry)(nil)).IfNotExists().Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		modelsList := []interface{}{
			(*models.HealthLogEntry)(nil),
			(*models.PerformanceRecord)(nil),
			(*models.District)(nil),
		}

		for _, model := range modelsList {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
}
