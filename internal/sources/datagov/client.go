package datagov

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkoziy/mgnrega/dashboard/internal/apperr"
	"github.com/mkoziy/mgnrega/dashboard/internal/ratelimit"
)

const (
	DefaultBaseURL = "https://api.data.gov.in"
	pageLimit      = 100
)

// StatusError reports a non-200 answer from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API returned status %d", e.Code)
	}
	return fmt.Sprintf("API returned status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return apperr.ErrUpstreamUnavailable }

// LiveAdapter calls the data.gov.in resource API.
type LiveAdapter struct {
	httpClient *http.Client
	limiter    ratelimit.Limiter
	baseURL    string
	resourceID string
	apiKey     string
}

var _ Source = (*LiveAdapter)(nil)

// NewLiveAdapter creates a client for one resource id. An empty baseURL uses
// DefaultBaseURL.
func NewLiveAdapter(limiter ratelimit.Limiter, baseURL, resourceID, apiKey string) *LiveAdapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &LiveAdapter{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		baseURL:    strings.TrimRight(baseURL, "/"),
		resourceID: resourceID,
		apiKey:     apiKey,
	}
}

// URL returns the resource endpoint without credentials.
func (c *LiveAdapter) URL() string {
	return fmt.Sprintf("%s/resource/%s", c.baseURL, c.resourceID)
}

// Fetch retrieves the figures for one district. Every failure wraps
// apperr.ErrUpstreamUnavailable.
func (c *LiveAdapter) Fetch(ctx context.Context, stateCode, districtCode string) (*Response, error) {
	if c.resourceID == "" {
		return nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", apperr.ErrUpstreamUnavailable, err)
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", fmt.Sprintf("%d", pageLimit))
	params.Set("filters[state_code]", stateCode)
	params.Set("filters[district_code]", districtCode)
	if c.apiKey != "" {
		params.Set("api-key", c.apiKey)
	}

	u := fmt.Sprintf("%s?%s", c.URL(), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", apperr.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: execute request: %w", apperr.ErrUpstreamUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", apperr.ErrUpstreamUnavailable, err)
	}
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("%w: no records for state %s district %s", apperr.ErrUpstreamUnavailable, stateCode, districtCode)
	}
	return &result, nil
}
