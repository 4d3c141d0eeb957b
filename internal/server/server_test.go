package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoziy/mgnrega/dashboard/internal/apperr"
	"github.com/mkoziy/mgnrega/dashboard/internal/models"
	"github.com/mkoziy/mgnrega/dashboard/internal/performance"
)

var hindi = "पुणे"

var pune = &models.District{
	ID:             "pune-id",
	StateCode:      "27",
	StateName:      "Maharashtra",
	DistrictCode:   "521",
	DistrictName:   "Pune",
	DistrictNameHi: &hindi,
}

type fakeService struct {
	resolveErr error
	refreshErr error
	healthErr  error
	resolves   int
	refreshes  int
	panic      bool
	lastLimit  int
	lastState  string
}

func (f *fakeService) District(_ context.Context, id string) (*models.District, error) {
	if id != pune.ID {
		return nil, fmt.Errorf("district %s: %w", id, apperr.ErrNotFound)
	}
	return pune, nil
}

func (f *fakeService) Districts(_ context.Context, state string) ([]*models.District, error) {
	f.lastState = state
	if state != "27" {
		return []*models.District{}, nil
	}
	return []*models.District{pune}, nil
}

func (f *fakeService) result() *performance.Result {
	records := make([]*models.PerformanceRecord, 0, 6)
	for i, m := range []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"} {
		records = append(records, &models.PerformanceRecord{
			DistrictID:          pune.ID,
			FinancialYear:       "2024-25",
			Month:               m,
			PersonDaysGenerated: int64(100000 * (i + 1)),
			TotalExpenditure:    20000000,
			WageExpenditure:     12000000,
			DataSource:          models.SourceSample,
		})
	}
	return &performance.Result{District: pune, Records: records, Source: performance.SourceFallback}
}

func (f *fakeService) Resolve(_ context.Context, id string) (*performance.Result, error) {
	f.resolves++
	if f.panic {
		panic("boom")
	}
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	if id != pune.ID {
		return nil, fmt.Errorf("district %s: %w", id, apperr.ErrNotFound)
	}
	return f.result(), nil
}

func (f *fakeService) Refresh(_ context.Context, id string) (*performance.Result, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	res := f.result()
	res.Source = performance.SourceCache
	return res, nil
}

func (f *fakeService) RecentHealth(_ context.Context, limit int) ([]*models.HealthLogEntry, error) {
	f.lastLimit = limit
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return []*models.HealthLogEntry{{APIURL: "data.gov.in/mgnrega"}}, nil
}

func newTestServer(svc *fakeService, ping Pinger) http.Handler {
	return New(DefaultConfig(), svc, ping, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestPreflight(t *testing.T) {
	h := newTestServer(&fakeService{}, nil)

	t.Run("browser_preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/functions/v1/fetch-mgnrega-data", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "content-type, apikey")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Headers"))
		assert.Empty(t, rec.Body.String())
	})

	t.Run("preflight_with_unlisted_header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/districts", nil)
		req.Header.Set("Origin", "https://dashboard.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		req.Header.Set("Access-Control-Request-Headers", "X-Custom-Header")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "authorization, x-client-info, apikey, content-type", rec.Header().Get("Access-Control-Allow-Headers"))
		assert.Empty(t, rec.Body.String())
	})

	t.Run("bare_options_on_any_path", func(t *testing.T) {
		rec := do(t, h, http.MethodOptions, "/anything/at/all", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "authorization, x-client-info, apikey, content-type", rec.Header().Get("Access-Control-Allow-Headers"))
		assert.Empty(t, rec.Body.String())
	})
}

func TestInvoke(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		svc            *fakeService
		expectedStatus int
		expectedError  string
		resolves       int
	}{
		{
			name:           "success",
			body:           `{"stateCode":"27","districtCode":"521","districtId":"pune-id"}`,
			expectedStatus: http.StatusOK,
			resolves:       1,
		},
		{
			name:           "missing_district_id",
			body:           `{"stateCode":"27","districtCode":"521"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Missing required parameters",
		},
		{
			name:           "blank_state_code",
			body:           `{"stateCode":"  ","districtCode":"521","districtId":"pune-id"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Missing required parameters",
		},
		{
			name:           "malformed_json",
			body:           `{"stateCode":`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Missing required parameters",
		},
		{
			name:           "codes_do_not_match",
			body:           `{"stateCode":"27","districtCode":"499","districtId":"pune-id"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown_district",
			body:           `{"stateCode":"27","districtCode":"521","districtId":"nowhere"}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "storage_failure",
			body:           `{"stateCode":"27","districtCode":"521","districtId":"pune-id"}`,
			svc:            &fakeService{resolveErr: fmt.Errorf("upsert: %w: %w", apperr.ErrStorage, errors.New("sqlite: disk full"))},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Internal server error",
			resolves:       1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := tc.svc
			if svc == nil {
				svc = &fakeService{}
			}
			rec := do(t, newTestServer(svc, nil), http.MethodPost, "/functions/v1/fetch-mgnrega-data", tc.body)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tc.resolves, svc.resolves)

			body := decode(t, rec)
			if tc.expectedStatus == http.StatusOK {
				assert.Equal(t, true, body["success"])
				assert.Equal(t, "Data fetched and cached successfully", body["message"])
				assert.Equal(t, true, body["cached"])
				assert.Equal(t, "fallback", body["source"])
				assert.Equal(t, float64(6), body["records"])
				return
			}
			assert.NotEmpty(t, body["error"])
			if tc.expectedError != "" {
				assert.Equal(t, tc.expectedError, body["error"])
			}
		})
	}
}

func TestDistricts(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc, nil)

	rec := do(t, h, http.MethodGet, "/api/v1/districts?lang=hi", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "27", svc.lastState)

	var body struct {
		Districts []struct {
			ID           string `json:"id"`
			DistrictName string `json:"district_name"`
			Name         string `json:"name"`
		} `json:"districts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Districts, 1)
	assert.Equal(t, "Pune", body.Districts[0].DistrictName)
	assert.Equal(t, "पुणे", body.Districts[0].Name)

	rec = do(t, h, http.MethodGet, "/api/v1/districts?state_code=09", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "09", svc.lastState)
	assert.JSONEq(t, `{"districts":[]}`, rec.Body.String())
}

func TestPerformance(t *testing.T) {
	h := newTestServer(&fakeService{}, nil)

	rec := do(t, h, http.MethodGet, "/api/v1/districts/pune-id/performance", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Source  string `json:"source"`
		Current struct {
			Month string `json:"month"`
		} `json:"current"`
		Summary struct {
			PersonDays          string `json:"person_days"`
			MaterialExpenditure string `json:"material_expenditure"`
		} `json:"summary"`
		Records []json.RawMessage `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fallback", body.Source)
	assert.Equal(t, "Mar", body.Current.Month)
	assert.Equal(t, "3.00 L", body.Summary.PersonDays)
	assert.Equal(t, "₹80.00 L", body.Summary.MaterialExpenditure)
	assert.Len(t, body.Records, 6)

	rec = do(t, h, http.MethodGet, "/api/v1/districts/nowhere/performance", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefresh(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/districts/pune-id/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cache", decode(t, rec)["source"])
	assert.Equal(t, 1, svc.refreshes)

	rec = do(t, h, http.MethodGet, "/api/v1/districts/pune-id/refresh", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	svc.refreshErr = fmt.Errorf("list: %w: %w", apperr.ErrStorage, errors.New("no such table: mgnrega_performance"))
	rec = do(t, h, http.MethodPost, "/api/v1/districts/pune-id/refresh", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestWrongMethodOnAPIRoutes(t *testing.T) {
	testCases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/districts/pune-id/refresh"},
		{http.MethodPost, "/api/v1/districts"},
		{http.MethodPost, "/api/v1/districts/pune-id/performance"},
		{http.MethodDelete, "/api/v1/health"},
		{http.MethodPut, "/api/v1/health/upstream"},
		{http.MethodGet, "/functions/v1/fetch-mgnrega-data"},
	}

	h := newTestServer(&fakeService{}, nil)
	for _, tc := range testCases {
		t.Run(tc.method+tc.path, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
		})
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}, nil), http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := func(context.Context) error { return errors.New("database is closed") }
	rec = do(t, newTestServer(&fakeService{}, down), http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUpstreamHealth(t *testing.T) {
	testCases := []struct {
		name           string
		query          string
		expectedStatus int
		expectedLimit  int
	}{
		{name: "default_limit", query: "", expectedStatus: http.StatusOK, expectedLimit: 20},
		{name: "explicit_limit", query: "?limit=5", expectedStatus: http.StatusOK, expectedLimit: 5},
		{name: "capped_limit", query: "?limit=1000", expectedStatus: http.StatusOK, expectedLimit: 100},
		{name: "invalid_limit", query: "?limit=abc", expectedStatus: http.StatusBadRequest},
		{name: "negative_limit", query: "?limit=-1", expectedStatus: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(t, newTestServer(svc, nil), http.MethodGet, "/api/v1/health/upstream"+tc.query, "")
			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, tc.expectedLimit, svc.lastLimit)
		})
	}
}

func TestPanicIsRecovered(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{panic: true}, nil), http.MethodGet, "/api/v1/districts/pune-id/performance", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}, nil), http.MethodGet, "/api/v2/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
