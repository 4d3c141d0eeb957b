// Package sample synthesises MGNREGA performance series for districts whose
// real figures are unavailable.
package sample

import (
	"math/rand"
	"sync"
	"time"

	"github.com/mkoziy/mgnrega/dashboard/internal/models"
)

// Months is the fixed window a sample series covers, in order.
var Months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}

// Range is a half-open interval [Min, Max).
type Range struct {
	Min, Max int64
}

// Field ranges for generated values.
var (
	PersonDaysRange        = Range{100000, 600000}
	HouseholdsRange        = Range{10000, 60000}
	WomenPersondaysRange   = Range{50000, 300000}
	SCPersondaysRange      = Range{20000, 120000}
	STPersondaysRange      = Range{20000, 120000}
	OngoingWorksRange      = Range{100, 600}
	CompletedWorksRange    = Range{50, 250}
	TotalExpenditureRange  = Range{10000000, 60000000}
	WageExpenditureRange   = Range{5000000, 35000000}
	MaterialExpenditureRng = Range{5000000, 25000000}
	AverageWageRange       = Range{250, 350}
	TotalBudgetRange       = Range{15000000, 75000000}
	UtilizationRange       = Range{60, 90}
)

// Generator produces sample series. It is safe for concurrent use.
type Generator struct {
	mu            sync.Mutex
	rng           *rand.Rand
	now           func() time.Time
	financialYear string
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generated values reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.rng = rand.New(rand.NewSource(seed)) }
}

// WithClock overrides the last-updated timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithFinancialYear sets the year label of generated records.
func WithFinancialYear(year string) Option {
	return func(g *Generator) {
		if year != "" {
			g.financialYear = year
		}
	}
}

// NewGenerator returns a generator seeded from the wall clock unless WithSeed
// is given.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		now:           time.Now,
		financialYear: models.DefaultFinancialYear,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// Generate returns one record per month in Months for the district, in
// calendar order. It never fails.
func (g *Generator) Generate(district *models.District) []*models.PerformanceRecord {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	out := make([]*models.PerformanceRecord, 0, len(Months))
	for _, month := range Months {
		out = append(out, &models.PerformanceRecord{
			DistrictID:                   district.ID,
			StateCode:                    district.StateCode,
			DistrictCode:                 district.DistrictCode,
			FinancialYear:                g.financialYear,
			Month:                        month,
			MonthNumber:                  models.MonthNumber(month),
			FiscalMonth:                  models.FiscalMonth(month),
			PersonDaysGenerated:          g.draw(PersonDaysRange),
			HouseholdsProvidedEmployment: g.draw(HouseholdsRange),
			WomenPersondays:              g.draw(WomenPersondaysRange),
			SCPersondays:                 g.draw(SCPersondaysRange),
			STPersondays:                 g.draw(STPersondaysRange),
			OngoingWorks:                 g.draw(OngoingWorksRange),
			CompletedWorks:               g.draw(CompletedWorksRange),
			TotalExpenditure:             float64(g.draw(TotalExpenditureRange)),
			WageExpenditure:              float64(g.draw(WageExpenditureRange)),
			MaterialExpenditure:          float64(g.draw(MaterialExpenditureRng)),
			AverageWagePerDay:            float64(g.draw(AverageWageRange)),
			TotalBudget:                  float64(g.draw(TotalBudgetRange)),
			BudgetUtilizationPercentage:  float64(g.draw(UtilizationRange)),
			DataSource:                   models.SourceSample,
			LastUpdated:                  now,
		})
	}
	return out
}

// draw must be called with mu held.
func (g *Generator) draw(r Range) int64 {
	return r.Min + g.rng.Int63n(r.Max-r.Min)
}
