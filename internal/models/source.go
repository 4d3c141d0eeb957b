package models

import "strings"

// DataSource tags a performance record with its provenance.
type DataSource string

const (
	SourceAPI    DataSource = "api"
	SourceSample DataSource = "sample"
)

// DefaultFinancialYear is used when the upstream payload omits the year.
const DefaultFinancialYear = "2024-25"

// DefaultMonth is used when the upstream payload omits the month.
const DefaultMonth = "Jan"

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthLabels returns the twelve short month labels in calendar order.
func MonthLabels() []string {
	out := make([]string, len(monthLabels))
	copy(out, monthLabels)
	return out
}

// MonthNumber returns the calendar index (1..12) of a month label, or 0 when
// the label is not recognised. Matching is case-insensitive and accepts full
// month names.
func MonthNumber(label string) int {
	label = strings.TrimSpace(label)
	if len(label) < 3 {
		return 0
	}
	prefix := strings.ToLower(label[:3])
	for i, m := range monthLabels {
		if strings.ToLower(m) == prefix {
			return i + 1
		}
	}
	return 0
}

// FiscalMonth returns the position (1..12) of a month label inside an Indian
// financial year, which runs April to March, or 0 for unknown labels.
func FiscalMonth(label string) int {
	n := MonthNumber(label)
	if n == 0 {
		return 0
	}
	return (n+8)%12 + 1
}

// NormalizeMonth maps "january", "JAN" or "Jan" to the canonical label.
// Unknown labels are returned trimmed but otherwise unchanged.
func NormalizeMonth(label string) string {
	if n := MonthNumber(label); n > 0 {
		return monthLabels[n-1]
	}
	return strings.TrimSpace(label)
}
