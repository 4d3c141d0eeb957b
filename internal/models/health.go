package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// HealthLogEntry records the outcome of one call to the upstream data API.
type HealthLogEntry struct {
	bun.BaseModel `bun:"table:api_health_log,alias:h"`

	ID             string    `bun:"id,pk" json:"id"`
	APIURL         string    `bun:"api_url,notnull" json:"api_url"`
	Success        bool      `bun:"success,notnull" json:"success"`
	ErrorMessage   *string   `bun:"error_message" json:"error_message,omitempty"`
	ResponseTimeMs int64     `bun:"response_time_ms,notnull,default:0" json:"response_time_ms"`
	StatusCode     *int      `bun:"status_code" json:"status_code,omitempty"`
	CheckedAt      time.Time `bun:"checked_at,nullzero,notnull,default:current_timestamp" json:"checked_at"`
}

var _ bun.BeforeAppendModelHook = (*HealthLogEntry)(nil)

// BeforeAppendModel assigns an id on insert.
func (h *HealthLogEntry) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// NewHealthLogEntry builds an entry for a finished upstream call. A nil err
// yields a success entry with status 200; otherwise status 0 and the error text.
func NewHealthLogEntry(apiURL string, elapsed time.Duration, err error, at time.Time) *HealthLogEntry {
	entry := &HealthLogEntry{
		APIURL:         apiURL,
		Success:        err == nil,
		ResponseTimeMs: elapsed.Milliseconds(),
		CheckedAt:      at.UTC(),
	}
	status := 200
	if err != nil {
		msg := err.Error()
		entry.ErrorMessage = &msg
		status = 0
	}
	entry.StatusCode = &status
	return entry
}
