package performance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mkoziy/mgnrega/dashboard/internal/apperr"
	"github.com/mkoziy/mgnrega/dashboard/internal/models"
	"github.com/mkoziy/mgnrega/dashboard/internal/sources/datagov"
)

type fakeDistricts struct {
	byID map[string]*models.District
	err  error
}

func newFakeDistricts(ds ...*models.District) *fakeDistricts {
	f := &fakeDistricts{byID: make(map[string]*models.District)}
	for _, d := range ds {
		f.byID[d.ID] = d
	}
	return f
}

func (f *fakeDistricts) GetByID(_ context.Context, id string) (*models.District, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("district %s: %w", id, apperr.ErrNotFound)
	}
	return d, nil
}

func (f *fakeDistricts) ListByState(_ context.Context, stateCode string) ([]*models.District, error) {
	out := make([]*models.District, 0)
	for _, d := range f.byID {
		if d.StateCode == stateCode {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistrictName < out[j].DistrictName })
	return out, nil
}

// fakeStore keeps records keyed by natural key.
type fakeStore struct {
	mu        sync.Mutex
	rows      map[[4]string]*models.PerformanceRecord
	listErr   error
	upsertErr error
	lists     int
	upserts   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[[4]string]*models.PerformanceRecord)}
}

func (f *fakeStore) ListByDistrict(_ context.Context, districtID string, limit int) ([]*models.PerformanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.PerformanceRecord, 0)
	for _, r := range f.rows {
		if r.DistrictID == districtID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Upsert(_ context.Context, records []*models.PerformanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, r := range records {
		cp := *r
		f.rows[r.NaturalKey()] = &cp
	}
	return nil
}

type fakeHealth struct {
	mu      sync.Mutex
	entries []*models.HealthLogEntry
	err     error
}

func (f *fakeHealth) Record(_ context.Context, entry *models.HealthLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHealth) Recent(_ context.Context, limit int) ([]*models.HealthLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.HealthLogEntry, 0, len(f.entries))
	for i := len(f.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, f.entries[i])
	}
	return out, nil
}

type fakeUpstream struct {
	resp  *datagov.Response
	err   error
	calls int
}

func (f *fakeUpstream) Fetch(ctx context.Context, stateCode, districtCode string) (*datagov.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.resp, nil
}

func (f *fakeUpstream) URL() string { return datagov.HealthURL }

var errDisk = errors.New("disk I/O error")
