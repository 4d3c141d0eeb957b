// Package performance decides, per district, whether to serve cached MGNREGA
// figures, fetch them from the government API or fall back to sample data.
package performance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkoziy/mgnrega/dashboard/internal/apperr"
	"github.com/mkoziy/mgnrega/dashboard/internal/models"
	"github.com/mkoziy/mgnrega/dashboard/internal/sources/datagov"
)

// Source tells callers where the returned records came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// DistrictLookup resolves district reference data.
type DistrictLookup interface {
	GetByID(ctx context.Context, id string) (*models.District, error)
	ListByState(ctx context.Context, stateCode string) ([]*models.District, error)
}

// Store is the performance cache.
type Store interface {
	ListByDistrict(ctx context.Context, districtID string, limit int) ([]*models.PerformanceRecord, error)
	Upsert(ctx context.Context, records []*models.PerformanceRecord) error
}

// HealthLog is the append-only log of upstream calls.
type HealthLog interface {
	Record(ctx context.Context, entry *models.HealthLogEntry) error
	Recent(ctx context.Context, limit int) ([]*models.HealthLogEntry, error)
}

// SampleGenerator synthesises a fallback series.
type SampleGenerator interface {
	Generate(district *models.District) []*models.PerformanceRecord
}

// Config tunes the service.
type Config struct {
	// HistoryLimit caps how many records a resolution returns.
	HistoryLimit int
	// UpstreamTimeout bounds a single call to the government API.
	UpstreamTimeout time.Duration
	// HealthWriteTimeout bounds the health log write, which runs even when
	// the request context has been cancelled.
	HealthWriteTimeout time.Duration
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		HistoryLimit:       12,
		UpstreamTimeout:    10 * time.Second,
		HealthWriteTimeout: 5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}
	if c.UpstreamTimeout <= 0 {
		c.UpstreamTimeout = def.UpstreamTimeout
	}
	if c.HealthWriteTimeout <= 0 {
		c.HealthWriteTimeout = def.HealthWriteTimeout
	}
	return c
}

// Deps are the collaborators of a Service.
type Deps struct {
	Districts DistrictLookup
	Store     Store
	Health    HealthLog
	Upstream  datagov.Source
	Samples   SampleGenerator
}

// Result is the outcome of a resolution. Records are newest first whatever
// the source.
type Result struct {
	District *models.District
	Records  []*models.PerformanceRecord
	Source   Source
}

// Current returns the newest record, or nil when there are none.
func (r *Result) Current() *models.PerformanceRecord {
	var newest *models.PerformanceRecord
	for _, rec := range r.Records {
		if newest == nil || newer(rec, newest) {
			newest = rec
		}
	}
	return newest
}

func newer(a, b *models.PerformanceRecord) bool {
	if a.FinancialYear != b.FinancialYear {
		return a.FinancialYear > b.FinancialYear
	}
	return models.FiscalMonth(a.Month) > models.FiscalMonth(b.Month)
}

// Service is the fetch-or-serve orchestrator.
type Service struct {
	cfg       Config
	districts DistrictLookup
	store     Store
	health    HealthLog
	upstream  datagov.Source
	samples   SampleGenerator
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a Service. A nil logger discards log output.
func NewService(cfg Config, deps Deps, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:       cfg.withDefaults(),
		districts: deps.Districts,
		store:     deps.Store,
		health:    deps.Health,
		upstream:  deps.Upstream,
		samples:   deps.Samples,
		logger:    logger,
		now:       time.Now,
	}
}

// Resolve returns the cached records of a district. When nothing is cached it
// calls the upstream API and, if that fails, persists and returns a sample
// series. Cache presence alone short-circuits the upstream call; records are
// never considered stale.
//
// Only apperr.ErrValidation, apperr.ErrNotFound and apperr.ErrStorage are
// returned. Upstream failures are absorbed.
func (s *Service) Resolve(ctx context.Context, districtID string) (*Result, error) {
	district, err := s.district(ctx, districtID)
	if err != nil {
		return nil, err
	}

	cached, err := s.store.ListByDistrict(ctx, district.ID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		s.logger.Debug("serving cached performance",
			zap.String("district_id", district.ID),
			zap.Int("records", len(cached)))
		return &Result{District: district, Records: cached, Source: SourceCache}, nil
	}

	records, fetchErr := s.fetchUpstream(ctx, district)
	if fetchErr == nil {
		return s.storeAndReload(ctx, district, records)
	}

	s.logger.Warn("upstream unavailable, generating sample data",
		zap.String("district_id", district.ID),
		zap.Error(fetchErr))
	return s.fallback(ctx, district)
}

// Refresh always attempts an upstream fetch. On failure it keeps whatever is
// cached and only falls back to sample data when the cache is empty.
func (s *Service) Refresh(ctx context.Context, districtID string) (*Result, error) {
	district, err := s.district(ctx, districtID)
	if err != nil {
		return nil, err
	}

	records, fetchErr := s.fetchUpstream(ctx, district)
	if fetchErr == nil {
		return s.storeAndReload(ctx, district, records)
	}

	cached, err := s.store.ListByDistrict(ctx, district.ID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		s.logger.Warn("refresh failed, keeping cached performance",
			zap.String("district_id", district.ID),
			zap.Error(fetchErr))
		return &Result{District: district, Records: cached, Source: SourceCache}, nil
	}
	return s.fallback(ctx, district)
}

// District returns the reference row of a district.
func (s *Service) District(ctx context.Context, districtID string) (*models.District, error) {
	return s.district(ctx, districtID)
}

// Districts lists the districts of a state ordered by name.
func (s *Service) Districts(ctx context.Context, stateCode string) ([]*models.District, error) {
	if strings.TrimSpace(stateCode) == "" {
		return nil, fmt.Errorf("state code is required: %w", apperr.ErrValidation)
	}
	return s.districts.ListByState(ctx, stateCode)
}

// RecentHealth returns the newest upstream health entries.
func (s *Service) RecentHealth(ctx context.Context, limit int) ([]*models.HealthLogEntry, error) {
	return s.health.Recent(ctx, limit)
}

func (s *Service) district(ctx context.Context, districtID string) (*models.District, error) {
	if strings.TrimSpace(districtID) == "" {
		return nil, fmt.Errorf("district id is required: %w", apperr.ErrValidation)
	}
	return s.districts.GetByID(ctx, districtID)
}

// fetchUpstream performs exactly one upstream call and writes exactly one
// health log entry for it.
func (s *Service) fetchUpstream(ctx context.Context, district *models.District) ([]*models.PerformanceRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.UpstreamTimeout)
	start := time.Now()
	resp, err := s.upstream.Fetch(callCtx, district.StateCode, district.DistrictCode)
	elapsed := time.Since(start)
	cancel()

	var records []*models.PerformanceRecord
	if err == nil {
		records = datagov.MapToRecords(resp, district, s.now())
		if len(records) == 0 {
			err = fmt.Errorf("%w: empty payload", apperr.ErrUpstreamUnavailable)
		}
	}

	s.recordHealth(ctx, models.NewHealthLogEntry(s.upstream.URL(), elapsed, err, s.now()))
	return records, err
}

func (s *Service) recordHealth(ctx context.Context, entry *models.HealthLogEntry) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.HealthWriteTimeout)
	defer cancel()

	if err := s.health.Record(writeCtx, entry); err != nil {
		s.logger.Error("failed to write api health entry",
			zap.String("api_url", entry.APIURL),
			zap.Bool("success", entry.Success),
			zap.Error(err))
	}
}

func (s *Service) storeAndReload(ctx context.Context, district *models.District, records []*models.PerformanceRecord) (*Result, error) {
	if err := s.store.Upsert(ctx, records); err != nil {
		return nil, err
	}
	cached, err := s.store.ListByDistrict(ctx, district.ID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}
	s.logger.Info("cached upstream performance",
		zap.String("district_id", district.ID),
		zap.Int("records", len(records)))
	return &Result{District: district, Records: cached, Source: SourceCache}, nil
}

func (s *Service) fallback(ctx context.Context, district *models.District) (*Result, error) {
	records := s.samples.Generate(district)
	if err := s.store.Upsert(ctx, records); err != nil {
		return nil, err
	}
	records = append([]*models.PerformanceRecord(nil), records...)
	sort.SliceStable(records, func(i, j int) bool { return newer(records[i], records[j]) })
	s.logger.Info("cached sample performance",
		zap.String("district_id", district.ID),
		zap.Int("records", len(records)))
	return &Result{District: district, Records: records, Source: SourceFallback}, nil
}
