package datagov

import (
	"strings"
	"time"

	"github.com/mkoziy/mgnrega/dashboard/internal/models"
)

// MapToRecords converts an API response into performance records for
// district. Missing figures become zero; a missing financial year or month
// takes the model placeholders. Rows sharing a natural key collapse to the
// last one seen.
func MapToRecords(resp *Response, district *models.District, now time.Time) []*models.PerformanceRecord {
	if resp == nil {
		return nil
	}

	out := make([]*models.PerformanceRecord, 0, len(resp.Records))
	index := make(map[[4]string]int)
	for _, r := range resp.Records {
		rec := MapToRecord(r, district, now)
		key := rec.NaturalKey()
		if i, ok := index[key]; ok {
			out[i] = rec
			continue
		}
		index[key] = len(out)
		out = append(out, rec)
	}
	return out
}

// MapToRecord converts one API row.
func MapToRecord(r Record, district *models.District, now time.Time) *models.PerformanceRecord {
	year := strings.TrimSpace(r.FinancialYear)
	if year == "" {
		year = models.DefaultFinancialYear
	}
	month := models.NormalizeMonth(r.Month)
	if models.MonthNumber(month) == 0 {
		month = models.DefaultMonth
	}

	return &models.PerformanceRecord{
		DistrictID:                   district.ID,
		StateCode:                    district.StateCode,
		DistrictCode:                 district.DistrictCode,
		FinancialYear:                year,
		Month:                        month,
		MonthNumber:                  models.MonthNumber(month),
		FiscalMonth:                  models.FiscalMonth(month),
		PersonDaysGenerated:          int64(r.PersonDaysGenerated),
		HouseholdsProvidedEmployment: int64(r.HouseholdsProvided),
		WomenPersondays:              int64(r.WomenPersondays),
		SCPersondays:                 int64(r.SCPersondays),
		STPersondays:                 int64(r.STPersondays),
		OngoingWorks:                 int64(r.OngoingWorks),
		CompletedWorks:               int64(r.CompletedWorks),
		TotalExpenditure:             float64(r.TotalExpenditure),
		WageExpenditure:              float64(r.WageExpenditure),
		MaterialExpenditure:          float64(r.MaterialExpenditure),
		AverageWagePerDay:            float64(r.AverageWagePerDay),
		TotalBudget:                  float64(r.TotalBudget),
		BudgetUtilizationPercentage:  float64(r.BudgetUtilizationPercentage),
		DataSource:                   models.SourceAPI,
		LastUpdated:                  now.UTC(),
	}
}
