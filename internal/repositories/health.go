package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/mkoziy/mgnrega/dashboard/internal/apperr"
	"github.com/mkoziy/mgnrega/dashboard/internal/models"
)

// HealthLogRepo appends and reads upstream health-check entries.
type HealthLogRepo struct {
	db bun.IDB
}

// NewHealthLogRepo creates a repository over db.
func NewHealthLogRepo(db bun.IDB) *HealthLogRepo {
	return &HealthLogRepo{db: db}
}

// Record appends one entry. Entries are never updated.
func (r *HealthLogRepo) Record(ctx context.Context, entry *models.HealthLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if _, err := r.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("record health entry for %s: %w: %w", entry.APIURL, apperr.ErrStorage, err)
	}
	return nil
}

// Recent returns the newest entries first.
func (r *HealthLogRepo) Recent(ctx context.Context, limit int) ([]*models.HealthLogEntry, error) {
	entries := make([]*models.HealthLogEntry, 0)
	q := r.db.NewSelect().
		Model(&entries).
		OrderExpr("checked_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list health entries: %w: %w", apperr.ErrStorage, err)
	}
	return entries, nil
}
