// Package format renders MGNREGA figures the way the dashboard shows them,
// using Indian units (crore, lakh, thousand).
package format

import (
	"fmt"
	"strconv"

	"github.com/mkoziy/mgnrega/dashboard/internal/models"
)

const (
	crore    = 1e7
	lakh     = 1e5
	thousand = 1e3
)

// Number formats n with two decimals in the largest Indian unit it reaches.
// Values below one thousand are printed as is.
func Number(n float64) string {
	switch {
	case n >= crore:
		return fmt.Sprintf("%.2f Cr", n/crore)
	case n >= lakh:
		return fmt.Sprintf("%.2f L", n/lakh)
	case n >= thousand:
		return fmt.Sprintf("%.2f K", n/thousand)
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}

// Count is Number for integer counters.
func Count(n int64) string { return Number(float64(n)) }

// Currency prefixes Number with the rupee sign.
func Currency(n float64) string { return "₹" + Number(n) }

// Percent prints a utilisation rate.
func Percent(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64) + "%"
}

// Summary is the human readable view of a single month.
type Summary struct {
	Period              string `json:"period"`
	PersonDays          string `json:"person_days"`
	Households          string `json:"households"`
	WomenPersondays     string `json:"women_persondays"`
	AverageWagePerDay   string `json:"average_wage_per_day"`
	BudgetUtilization   string `json:"budget_utilization"`
	OngoingWorks        int64  `json:"ongoing_works"`
	CompletedWorks      int64  `json:"completed_works"`
	TotalExpenditure    string `json:"total_expenditure"`
	WageExpenditure     string `json:"wage_expenditure"`
	MaterialExpenditure string `json:"material_expenditure"`
}

// Summarize formats rec. Material expenditure is derived as total minus
// wage, matching how the dashboard splits spending. A nil record yields nil.
func Summarize(rec *models.PerformanceRecord) *Summary {
	if rec == nil {
		return nil
	}
	return &Summary{
		Period:              rec.FinancialYear + " - " + rec.Month,
		PersonDays:          Count(rec.PersonDaysGenerated),
		Households:          Count(rec.HouseholdsProvidedEmployment),
		WomenPersondays:     Count(rec.WomenPersondays),
		AverageWagePerDay:   "₹" + strconv.FormatFloat(rec.AverageWagePerDay, 'f', -1, 64),
		BudgetUtilization:   Percent(rec.BudgetUtilizationPercentage),
		OngoingWorks:        rec.OngoingWorks,
		CompletedWorks:      rec.CompletedWorks,
		TotalExpenditure:    Currency(rec.TotalExpenditure),
		WageExpenditure:     Currency(rec.WageExpenditure),
		MaterialExpenditure: Currency(rec.TotalExpenditure - rec.WageExpenditure),
	}
}
