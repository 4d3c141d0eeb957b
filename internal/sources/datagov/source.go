// Package datagov adapts the data.gov.in MGNREGA resource API.
package datagov

import (
	"context"
	"fmt"

	"github.com/mkoziy/mgnrega/dashboard/internal/apperr"
)

// HealthURL is recorded in the health log for calls to the MGNREGA resource.
const HealthURL = "data.gov.in/mgnrega"

// ErrNotConfigured is returned by StubAdapter for every call.
var ErrNotConfigured = fmt.Errorf("%w: API endpoint not configured - using sample data", apperr.ErrUpstreamUnavailable)

// Source fetches raw district figures from the government API.
type Source interface {
	Fetch(ctx context.Context, stateCode, districtCode string) (*Response, error)
	// URL identifies the endpoint in health log entries.
	URL() string
}

// Mode selects the Source implementation.
type Mode string

const (
	ModeStub Mode = "stub"
	ModeLive Mode = "live"
)

// StubAdapter stands in for an unconfigured API. It never touches the network.
type StubAdapter struct{}

var _ Source = StubAdapter{}

func (StubAdapter) Fetch(ctx context.Context, stateCode, districtCode string) (*Response, error) {
	return nil, ErrNotConfigured
}

func (StubAdapter) URL() string { return HealthURL }
