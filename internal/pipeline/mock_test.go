package pipeline

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/renolab/renoplan/pkg/estima"
	"github.com/renolab/renoplan/pkg/riskcast"
)

func ptr[T any](v T) *T { return &v }

// mockEstima is a scripted estimation client. failEstimate and failEvaluate
// name building IDs that should error at the respective stage.
type mockEstima struct {
	mu            sync.Mutex
	failEstimate  map[string]bool
	failEvaluate  map[string]bool
	estimateCalls []string
	estimateReqs  []estima.EstimateRequest
	evaluateCalls []string

	// onEstimate, when set, runs at the start of every Estimate call.
	onEstimate func(buildingID string)
}

func newMockEstima() *mockEstima {
	return &mockEstima{
		failEstimate: make(map[string]bool),
		failEvaluate: make(map[string]bool),
	}
}

func (m *mockEstima) Estimate(ctx context.Context, req estima.EstimateRequest) (*estima.EstimateResponse, error) {
	if m.onEstimate != nil {
		m.onEstimate(req.Building.ID)
	}
	m.mu.Lock()
	m.estimateCalls = append(m.estimateCalls, req.Building.ID)
	m.estimateReqs = append(m.estimateReqs, req)
	fail := m.failEstimate[req.Building.ID]
	m.mu.Unlock()

	if fail {
		return nil, eris.Errorf("estima: unexpected status 500 for %s", req.Building.ID)
	}
	return &estima.EstimateResponse{
		AnnualEnergyNeeds: ptr(10000.0),
		AnnualEnergyCost:  ptr(2200.0),
		EPCClass:          "D",
		ComfortIndex:      ptr(55.0),
		FlexibilityIndex:  ptr(30.0),
	}, nil
}

func (m *mockEstima) Evaluate(ctx context.Context, req estima.EvaluateRequest) (*estima.EvaluateResponse, error) {
	m.mu.Lock()
	m.evaluateCalls = append(m.evaluateCalls, req.Building.ID)
	fail := m.failEvaluate[req.Building.ID]
	m.mu.Unlock()

	if fail {
		return nil, eris.Errorf("estima: unexpected status 502 for %s", req.Building.ID)
	}
	return &estima.EvaluateResponse{
		Scenarios: []estima.Scenario{
			{
				ID:                "current",
				EPCClass:          req.Baseline.EPCClass,
				AnnualEnergyNeeds: ptr(req.Baseline.AnnualEnergyNeeds),
				AnnualEnergyCost:  ptr(req.Baseline.AnnualEnergyCost),
				ComfortIndex:      ptr(req.Baseline.ComfortIndex),
				FlexibilityIndex:  ptr(req.Baseline.FlexibilityIndex),
			},
			{
				ID:                "renovated",
				EPCClass:          "B",
				AnnualEnergyNeeds: ptr(req.Baseline.AnnualEnergyNeeds * 0.7),
				AnnualEnergyCost:  ptr(req.Baseline.AnnualEnergyCost * 0.7),
				ComfortIndex:      ptr(80.0),
				FlexibilityIndex:  ptr(60.0),
				Measures:          req.Measures,
			},
		},
	}, nil
}

// mockRiskcast records every assess request and echoes back the capex and
// maintenance figures it would have used, applying a fixed dataset default
// when the request leaves a field off.
type mockRiskcast struct {
	mu       sync.Mutex
	requests []riskcast.AssessRequest

	defaultCapex       float64
	defaultMaintenance float64
}

func newMockRiskcast() *mockRiskcast {
	return &mockRiskcast{defaultCapex: 40000, defaultMaintenance: 800}
}

func (m *mockRiskcast) AssessRisk(ctx context.Context, req riskcast.AssessRequest) (*riskcast.AssessResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	capex := m.defaultCapex
	if req.Capex != nil {
		capex = *req.Capex
	}
	maint := m.defaultMaintenance
	if req.AnnualMaintenance != nil {
		maint = *req.AnnualMaintenance
	}

	resp := &riskcast.AssessResponse{
		Point: &riskcast.PointForecast{
			NPV:                   12500,
			IRR:                   0.08,
			ROI:                   35,
			SimplePaybackYears:    11,
			MonthlySavings:        90,
			SuccessProbability:    0.72,
			CapexUsed:             capex,
			AnnualMaintenanceUsed: maint,
		},
		Metadata: map[string]float64{
			"probability_positive_npv": 0.81,
			"model_version":            3,
		},
	}
	if req.OutputTier == riskcast.TierPercentiles || req.OutputTier == riskcast.TierFull {
		resp.Percentiles = map[string]float64{"p10": 2000, "p50": 12500, "p90": 24000}
	}
	if req.OutputTier == riskcast.TierFull {
		resp.Probabilities = map[string]float64{"prob_payback_under_10y": 0.4}
	}
	return resp, nil
}

func (m *mockRiskcast) lastRequest() riskcast.AssessRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}
