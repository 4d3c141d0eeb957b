package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/mkoziy/mgnrega/dashboard/internal/models"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		districts, err := SeedDistricts(districtsYAML)
		if err != nil {
			return err
		}
		return insertDistricts(ctx, db, districts)
	}, func(ctx context.Context, db *bun.DB) error {
		districts, err := SeedDistricts(districtsYAML)
		if err != nil || len(districts) == 0 {
			return err
		}
		_, err = db.NewDelete().
			Model((*models.District)(nil)).
			Where("state_code = ?", districts[0].StateCode).
			Exec(ctx)
		return err
	})
}
