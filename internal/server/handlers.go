package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mkoziy/mgnrega/dashboard/internal/apperr"
	"github.com/mkoziy/mgnrega/dashboard/internal/format"
	"github.com/mkoziy/mgnrega/dashboard/internal/models"
	"github.com/mkoziy/mgnrega/dashboard/internal/performance"
)

const (
	defaultHealthLimit = 20
	maxHealthLimit     = 100
)

type errorResponse struct {
	Error string `json:"error"`
}

// invokeRequest is the body of the fetch function called by the dashboard.
type invokeRequest struct {
	StateCode    string `json:"stateCode" validate:"required"`
	DistrictCode string `json:"districtCode" validate:"required"`
	DistrictID   string `json:"districtId" validate:"required"`
}

type invokeResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Cached  bool               `json:"cached"`
	Source  performance.Source `json:"source"`
	Records int                `json:"records"`
}

type districtView struct {
	*models.District
	Name string `json:"name"`
}

type performanceResponse struct {
	District districtView                `json:"district"`
	Source   performance.Source          `json:"source"`
	Current  *models.PerformanceRecord   `json:"current"`
	Summary  *format.Summary             `json:"summary"`
	Records  []*models.PerformanceRecord `json:"records"`
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	req.StateCode = strings.TrimSpace(req.StateCode)
	req.DistrictCode = strings.TrimSpace(req.DistrictCode)
	req.DistrictID = strings.TrimSpace(req.DistrictID)
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}

	district, err := s.svc.District(r.Context(), req.DistrictID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if district.StateCode != req.StateCode || district.DistrictCode != req.DistrictCode {
		writeError(w, http.StatusBadRequest, "stateCode and districtCode do not match districtId")
		return
	}

	res, err := s.svc.Resolve(r.Context(), district.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, invokeResponse{
		Success: true,
		Message: "Data fetched and cached successfully",
		Cached:  true,
		Source:  res.Source,
		Records: len(res.Records),
	})
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := strings.TrimSpace(q.Get("state_code"))
	if state == "" {
		state = s.cfg.DefaultState
	}
	lang := q.Get("lang")

	districts, err := s.svc.Districts(r.Context(), state)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]districtView, 0, len(districts))
	for _, d := range districts {
		out = append(out, districtView{District: d, Name: d.Name(lang)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"districts": out})
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Resolve(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPerformanceResponse(res, r.URL.Query().Get("lang")))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Refresh(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPerformanceResponse(res, r.URL.Query().Get("lang")))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.ping(r.Context()); err != nil {
		s.logger.Error("database ping failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpstreamHealth(w http.ResponseWriter, r *http.Request) {
	limit := defaultHealthLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHealthLimit)
	}

	entries, err := s.svc.RecentHealth(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func newPerformanceResponse(res *performance.Result, lang string) performanceResponse {
	current := res.Current()
	return performanceResponse{
		District: districtView{District: res.District, Name: res.District.Name(lang)},
		Source:   res.Source,
		Current:  current,
		Summary:  format.Summarize(current),
		Records:  res.Records,
	}
}

// fail maps err onto a status code. Server side failures are logged in full
// and answered with a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, status, "Internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
