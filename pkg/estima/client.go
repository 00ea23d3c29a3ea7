// Package estima is an HTTP client for the Estima energy estimation service.
// It covers baseline estimation and renovation-scenario evaluation.
package estima

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

const defaultBaseURL = "https://api.estima.energy/v1"

// Client talks to the estimation service.
type Client interface {
	Estimate(ctx context.Context, req EstimateRequest) (*EstimateResponse, error)
	Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResponse, error)
}

// Building is the wire form of a building descriptor.
type Building struct {
	ID               string         `json:"id"`
	Country          string         `json:"country"`
	Category         string         `json:"category"`
	ConstructionYear int            `json:"construction_year"`
	Period           string         `json:"period"`
	Floors           int            `json:"floors"`
	FloorAreaM2      float64        `json:"floor_area_m2"`
	Latitude         float64        `json:"latitude"`
	Longitude        float64        `json:"longitude"`
	Archetype        string         `json:"archetype,omitempty"`
	Modifications    map[string]any `json:"modifications,omitempty"`
}

// EstimateRequest is the request body for POST /estimate.
type EstimateRequest struct {
	Building Building `json:"building"`
}

// EstimateResponse is the baseline performance estimate. Required fields are
// pointers so a missing field is caught by Validate instead of reading as a
// silent zero.
type EstimateResponse struct {
	AnnualEnergyNeeds *float64 `json:"annual_energy_needs_kwh"`
	AnnualEnergyCost  *float64 `json:"annual_energy_cost"`
	EPCClass          string   `json:"epc_class"`
	ComfortIndex      *float64 `json:"comfort_index"`
	FlexibilityIndex  *float64 `json:"flexibility_index"`
}

// Validate checks that the service reply is complete and in range.
func (r *EstimateResponse) Validate() error {
	switch {
	case r.AnnualEnergyNeeds == nil:
		return eris.New("estima: estimate response missing annual_energy_needs_kwh")
	case *r.AnnualEnergyNeeds < 0:
		return eris.New("estima: negative annual energy needs")
	case r.AnnualEnergyCost == nil:
		return eris.New("estima: estimate response missing annual_energy_cost")
	case r.EPCClass == "":
		return eris.New("estima: estimate response missing epc_class")
	case r.ComfortIndex == nil || *r.ComfortIndex < 0 || *r.ComfortIndex > 100:
		return eris.New("estima: comfort_index missing or outside [0,100]")
	case r.FlexibilityIndex == nil || *r.FlexibilityIndex < 0 || *r.FlexibilityIndex > 100:
		return eris.New("estima: flexibility_index missing or outside [0,100]")
	}
	return nil
}

// EvaluateRequest is the request body for POST /scenarios.
type EvaluateRequest struct {
	Building Building  `json:"building"`
	Baseline *Baseline `json:"baseline"`
	Measures []string  `json:"measures"`
}

// Baseline echoes the estimate the scenarios are evaluated against.
type Baseline struct {
	AnnualEnergyNeeds float64 `json:"annual_energy_needs_kwh"`
	AnnualEnergyCost  float64 `json:"annual_energy_cost"`
	EPCClass          string  `json:"epc_class"`
	ComfortIndex      float64 `json:"comfort_index"`
	FlexibilityIndex  float64 `json:"flexibility_index"`
}

// Scenario is the wire form of one evaluated scenario.
type Scenario struct {
	ID                string   `json:"id"`
	EPCClass          string   `json:"epc_class"`
	AnnualEnergyNeeds *float64 `json:"annual_energy_needs_kwh"`
	AnnualEnergyCost  *float64 `json:"annual_energy_cost"`
	ComfortIndex      *float64 `json:"comfort_index"`
	FlexibilityIndex  *float64 `json:"flexibility_index"`
	Measures          []string `json:"measures,omitempty"`
}

// EvaluateResponse carries exactly two scenarios: "current" and "renovated".
type EvaluateResponse struct {
	Scenarios []Scenario `json:"scenarios"`
}

// Validate rejects replies that do not carry exactly the current and
// renovated scenario pair, or whose scenarios are incomplete.
func (r *EvaluateResponse) Validate() error {
	if len(r.Scenarios) != 2 {
		return eris.Errorf("estima: expected 2 scenarios, got %d", len(r.Scenarios))
	}
	seen := make(map[string]bool, 2)
	for _, sc := range r.Scenarios {
		if sc.ID != "current" && sc.ID != "renovated" {
			return eris.Errorf("estima: unexpected scenario id %q", sc.ID)
		}
		if seen[sc.ID] {
			return eris.Errorf("estima: duplicate scenario id %q", sc.ID)
		}
		seen[sc.ID] = true
		if sc.AnnualEnergyNeeds == nil || sc.AnnualEnergyCost == nil ||
			sc.ComfortIndex == nil || sc.FlexibilityIndex == nil || sc.EPCClass == "" {
			return eris.Errorf("estima: scenario %q is incomplete", sc.ID)
		}
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

// NewClient creates an estimation service client.
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

func (c *httpClient) Estimate(ctx context.Context, req EstimateRequest) (*EstimateResponse, error) {
	var resp EstimateResponse
	if err := c.post(ctx, "/estimate", req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResponse, error) {
	var resp EvaluateResponse
	if err := c.post(ctx, "/scenarios", req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) post(ctx context.Context, path string, req, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "estima: rate limit wait")
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return eris.Wrap(err, "estima: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "estima: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "estima: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "estima: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("estima: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "estima: unmarshal response")
	}
	return nil
}
