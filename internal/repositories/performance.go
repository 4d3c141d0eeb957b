package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/mkoziy/mgnrega/dashboard/internal/apperr"
	"github.com/mkoziy/mgnrega/dashboard/internal/models"
)

// naturalKey is the conflict target for performance upserts.
const naturalKey = "state_code, district_code, financial_year, month"

// PerformanceRepo persists cached MGNREGA performance records.
type PerformanceRepo struct {
	db bun.IDB
}

// NewPerformanceRepo creates a repository over db.
func NewPerformanceRepo(db bun.IDB) *PerformanceRepo {
	return &PerformanceRepo{db: db}
}

// ListByDistrict returns up to limit records for a district, newest first.
// Months are ordered within the April to March financial year, so March of
// "2024-25" comes before December. A non-positive limit returns every record.
func (r *PerformanceRepo) ListByDistrict(ctx context.Context, districtID string, limit int) ([]*models.PerformanceRecord, error) {
	records := make([]*models.PerformanceRecord, 0)
	q := r.db.NewSelect().
		Model(&records).
		Where("district_id = ?", districtID).
		OrderExpr("financial_year DESC, fiscal_month DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list performance for district %s: %w: %w", districtID, apperr.ErrStorage, err)
	}
	return records, nil
}

// Upsert inserts records in one statement, overwriting the metrics of any row
// that shares the same state, district, financial year and month. The id and
// creation time of an existing row are kept.
func (r *PerformanceRepo) Upsert(ctx context.Context, records []*models.PerformanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("upsert performance %v: %w: %w", rec.NaturalKey(), apperr.ErrStorage, err)
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.Month = models.NormalizeMonth(rec.Month)
		rec.MonthNumber = models.MonthNumber(rec.Month)
		rec.FiscalMonth = models.FiscalMonth(rec.Month)
	}

	_, err := r.db.NewInsert().
		Model(&records).
		On("CONFLICT (" + naturalKey + ") DO UPDATE").
		Set("district_id = EXCLUDED.district_id").
		Set("month_number = EXCLUDED.month_number").
		Set("fiscal_month = EXCLUDED.fiscal_month").
		Set("person_days_generated = EXCLUDED.person_days_generated").
		Set("households_provided_employment = EXCLUDED.households_provided_employment").
		Set("women_persondays = EXCLUDED.women_persondays").
		Set("sc_persondays = EXCLUDED.sc_persondays").
		Set("st_persondays = EXCLUDED.st_persondays").
		Set("ongoing_works = EXCLUDED.ongoing_works").
		Set("completed_works = EXCLUDED.completed_works").
		Set("total_expenditure = EXCLUDED.total_expenditure").
		Set("wage_expenditure = EXCLUDED.wage_expenditure").
		Set("material_expenditure = EXCLUDED.material_expenditure").
		Set("average_wage_per_day = EXCLUDED.average_wage_per_day").
		Set("total_budget = EXCLUDED.total_budget").
		Set("budget_utilization_percentage = EXCLUDED.budget_utilization_percentage").
		Set("data_source = EXCLUDED.data_source").
		Set("last_updated = EXCLUDED.last_updated").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert %d performance records: %w: %w", len(records), apperr.ErrStorage, err)
	}
	return nil
}

// CountByDistrict returns how many records are cached for a district.
func (r *PerformanceRepo) CountByDistrict(ctx context.Context, districtID string) (int, error) {
	n, err := r.db.NewSelect().
		Model((*models.PerformanceRecord)(nil)).
		Where("district_id = ?", districtID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count performance for district %s: %w: %w", districtID, apperr.ErrStorage, err)
	}
	return n, nil
}
