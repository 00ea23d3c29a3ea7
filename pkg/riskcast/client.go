// Package riskcast is an HTTP client for the Riskcast financial-risk service.
// Discounted-cash-flow indicators (NPV, IRR, payback) are computed service
// side; this client only shapes requests and validates replies.
package riskcast

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.riskcast.io/v1"

// OutputTier controls how much statistical detail the assessment carries.
type OutputTier string

const (
	TierPoint       OutputTier = "point"       // point forecasts only
	TierPercentiles OutputTier = "percentiles" // + percentile bands
	TierFull        OutputTier = "full"        // + threshold probabilities
)

// Client talks to the financial-risk service.
type Client interface {
	AssessRisk(ctx context.Context, req AssessRequest) (*AssessResponse, error)
}

// AssessRequest is the request body for POST /assess. Capex, maintenance and
// loan fields are pointers: nil means the field is left off the wire and the
// service falls back to its own dataset default, while an explicit zero is
// sent as zero.
type AssessRequest struct {
	AnnualEnergySavingsKWh float64    `json:"annual_energy_savings_kwh"`
	ProjectLifetimeYears   int        `json:"project_lifetime_years"`
	Capex                  *float64   `json:"capex,omitempty"`
	AnnualMaintenance      *float64   `json:"annual_maintenance,omitempty"`
	LoanAmount             *float64   `json:"loan_amount,omitempty"`
	LoanTermYears          *int       `json:"loan_term_years,omitempty"`
	OutputTier             OutputTier `json:"output_tier"`
}

// PointForecast holds the deterministic indicators. CapexUsed and
// AnnualMaintenanceUsed echo the figures the service actually applied,
// including dataset defaults for fields the request left unresolved.
type PointForecast struct {
	NPV                    float64 `json:"npv"`
	IRR                    float64 `json:"irr"`
	ROI                    float64 `json:"roi"`
	SimplePaybackYears     float64 `json:"simple_payback_years"`
	DiscountedPaybackYears float64 `json:"discounted_payback_years"`
	MonthlySavings         float64 `json:"monthly_savings"`
	SuccessProbability     float64 `json:"success_probability"`
	CapexUsed              float64 `json:"capex_used"`
	AnnualMaintenanceUsed  float64 `json:"annual_maintenance_used"`
}

// AssessResponse is the reply from POST /assess. Percentiles and
// Probabilities are populated only for the corresponding output tiers.
type AssessResponse struct {
	Point         *PointForecast     `json:"point_forecast"`
	Metadata      map[string]float64 `json:"metadata,omitempty"`
	Percentiles   map[string]float64 `json:"percentiles,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
}

// Validate checks the reply carries the mandatory point forecast.
func (r *AssessResponse) Validate() error {
	if r.Point == nil {
		return eris.New("riskcast: assess response missing point_forecast")
	}
	return nil
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLimiter sets a rate limiter applied before every outbound call.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a risk service client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) AssessRisk(ctx context.Context, req AssessRequest) (*AssessResponse, error) {
	if req.OutputTier == "" {
		req.OutputTier = TierPoint
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "riskcast: rate limit wait")
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "riskcast: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assess", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "riskcast: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "riskcast: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "riskcast: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("riskcast: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result AssessResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "riskcast: unmarshal response")
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}

	return &result, nil
}
