package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/mkoziy/mgnrega/dashboard/internal/apperr"
	"github.com/mkoziy/mgnrega/dashboard/internal/models"
)

// DistrictRepo reads district reference data.
type DistrictRepo struct {
	db bun.IDB
}

// NewDistrictRepo creates a repository over db.
func NewDistrictRepo(db bun.IDB) *DistrictRepo {
	return &DistrictRepo{db: db}
}

// GetByID fetches a district by id. Unknown ids yield apperr.ErrNotFound.
func (r *DistrictRepo) GetByID(ctx context.Context, id string) (*models.District, error) {
	district := new(models.District)
	err := r.db.NewSelect().
		Model(district).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("district %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get district %s: %w: %w", id, apperr.ErrStorage, err)
	}
	return district, nil
}

// ListByState returns the districts of a state ordered by English name.
func (r *DistrictRepo) ListByState(ctx context.Context, stateCode string) ([]*models.District, error) {
	districts := make([]*models.District, 0)
	err := r.db.NewSelect().
		Model(&districts).
		Where("state_code = ?", stateCode).
		Order("district_name").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list districts for state %s: %w: %w", stateCode, apperr.ErrStorage, err)
	}
	return districts, nil
}
