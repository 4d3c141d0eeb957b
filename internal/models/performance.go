package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PerformanceRecord holds one district's MGNREGA metrics for one
// (financial year, month) pair.
type PerformanceRecord struct {
	bun.BaseModel `bun:"table:mgnrega_performance,alias:p"`

	ID                           string     `bun:"id,pk" json:"id"`
	DistrictID                   string     `bun:"district_id,notnull" json:"district_id"`
	StateCode                    string     `bun:"state_code,notnull,unique:performance_natural_key" json:"state_code"`
	DistrictCode                 string     `bun:"district_code,notnull,unique:performance_natural_key" json:"district_code"`
	FinancialYear                string     `bun:"financial_year,notnull,unique:performance_natural_key" json:"financial_year"`
	Month                        string     `bun:"month,notnull,unique:performance_natural_key" json:"month"`
	MonthNumber                  int        `bun:"month_number,notnull,default:0" json:"-"`
	FiscalMonth                  int        `bun:"fiscal_month,notnull,default:0" json:"-"`
	PersonDaysGenerated          int64      `bun:"person_days_generated,notnull,default:0" json:"person_days_generated"`
	HouseholdsProvidedEmployment int64      `bun:"households_provided_employment,notnull,default:0" json:"households_provided_employment"`
	WomenPersondays              int64      `bun:"women_persondays,notnull,default:0" json:"women_persondays"`
	SCPersondays                 int64      `bun:"sc_persondays,notnull,default:0" json:"sc_persondays"`
	STPersondays                 int64      `bun:"st_persondays,notnull,default:0" json:"st_persondays"`
	OngoingWorks                 int64      `bun:"ongoing_works,notnull,default:0" json:"ongoing_works"`
	CompletedWorks               int64      `bun:"completed_works,notnull,default:0" json:"completed_works"`
	TotalExpenditure             float64    `bun:"total_expenditure,notnull,default:0" json:"total_expenditure"`
	WageExpenditure              float64    `bun:"wage_expenditure,notnull,default:0" json:"wage_expenditure"`
	MaterialExpenditure          float64    `bun:"material_expenditure,notnull,default:0" json:"material_expenditure"`
	AverageWagePerDay            float64    `bun:"average_wage_per_day,notnull,default:0" json:"average_wage_per_day"`
	TotalBudget                  float64    `bun:"total_budget,notnull,default:0" json:"total_budget"`
	BudgetUtilizationPercentage  float64    `bun:"budget_utilization_percentage,notnull,default:0" json:"budget_utilization_percentage"`
	DataSource                   DataSource `bun:"data_source,notnull" json:"data_source"`
	LastUpdated                  time.Time  `bun:"last_updated,notnull" json:"last_updated"`
	CreatedAt                    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

var _ bun.BeforeAppendModelHook = (*PerformanceRecord)(nil)

// BeforeAppendModel assigns an id and keeps MonthNumber and FiscalMonth in
// sync with Month.
func (p *PerformanceRecord) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.Month = NormalizeMonth(p.Month)
		p.MonthNumber = MonthNumber(p.Month)
		p.FiscalMonth = FiscalMonth(p.Month)
	}
	return nil
}

// NaturalKey returns the (state, district, year, month) tuple records are
// merged on.
func (p *PerformanceRecord) NaturalKey() [4]string {
	return [4]string{p.StateCode, p.DistrictCode, p.FinancialYear, NormalizeMonth(p.Month)}
}

// Validate checks the fields required to persist a record.
func (p *PerformanceRecord) Validate() error {
	if p.DistrictID == "" {
		return errors.New("district id is required")
	}
	if p.StateCode == "" || p.DistrictCode == "" {
		return errors.New("state and district codes are required")
	}
	if p.FinancialYear == "" {
		return errors.New("financial year is required")
	}
	if MonthNumber(p.Month) == 0 {
		return errors.New("month must be a calendar month label")
	}
	if p.DataSource != SourceAPI && p.DataSource != SourceSample {
		return errors.New("data source must be api or sample")
	}
	return nil
}

// WageExceedsTotal reports records whose wage spend is larger than the total
// spend. Such records are stored as-is.
func (p *PerformanceRecord) WageExceedsTotal() bool {
	return p.WageExpenditure > p.TotalExpenditure
}

// IsSample reports whether the record was synthesised.
func (p *PerformanceRecord) IsSample() bool {
	return p.DataSource == SourceSample
}
