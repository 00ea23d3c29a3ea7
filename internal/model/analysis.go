package model

// EstimationResult is the baseline energy performance of a building as
// computed by the estimation service.
type EstimationResult struct {
	AnnualEnergyNeeds float64 `json:"annual_energy_needs_kwh"`
	AnnualEnergyCost  float64 `json:"annual_energy_cost"`
	EPCClass          string  `json:"epc_class"`
	ComfortIndex      float64 `json:"comfort_index"`     // 0-100
	FlexibilityIndex  float64 `json:"flexibility_index"` // 0-100
}

// ScenarioID identifies one of the two scenario variants every building gets.
type ScenarioID string

const (
	ScenarioCurrent   ScenarioID = "current"
	ScenarioRenovated ScenarioID = "renovated"
)

// RenovationScenario describes a building's performance under one scenario:
// either as-is (current) or with the selected measures applied (renovated).
type RenovationScenario struct {
	ID                ScenarioID `json:"id"`
	EPCClass          string     `json:"epc_class"`
	AnnualEnergyNeeds float64    `json:"annual_energy_needs_kwh"`
	AnnualEnergyCost  float64    `json:"annual_energy_cost"`
	ComfortIndex      float64    `json:"comfort_index"`
	FlexibilityIndex  float64    `json:"flexibility_index"`
	Measures          []string   `json:"measures,omitempty"`
}

// FinancialOutcome holds the financial assessment of one scenario. NPV, IRR
// and the payback figures are point forecasts computed by the risk service;
// percentile bands and threshold probabilities are present only when the
// requested output tier includes them.
type FinancialOutcome struct {
	ScenarioID             ScenarioID         `json:"scenario_id"`
	Capex                  float64            `json:"capex"`
	AnnualMaintenance      float64            `json:"annual_maintenance"`
	NPV                    float64            `json:"npv"`
	IRR                    float64            `json:"irr"`
	ROI                    float64            `json:"roi"`
	SimplePaybackYears     float64            `json:"simple_payback_years"`
	DiscountedPaybackYears float64            `json:"discounted_payback_years"`
	MonthlySavings         float64            `json:"monthly_savings"`
	SuccessProbability     float64            `json:"success_probability"`
	Percentiles            map[string]float64 `json:"percentiles,omitempty"`
	Probabilities          map[string]float64 `json:"probabilities,omitempty"`
}

// AnalysisStatus is the lifecycle state of one building's analysis.
type AnalysisStatus string

const (
	StatusPending AnalysisStatus = "pending"
	StatusRunning AnalysisStatus = "running"
	StatusSuccess AnalysisStatus = "success"
	StatusError   AnalysisStatus = "error"
)

// BuildingAnalysisResult is the terminal outcome of one building's pipeline.
// On success it carries the estimation, both scenarios and the per-scenario
// financial outcomes; on error only the cause message.
type BuildingAnalysisResult struct {
	BuildingID   string                          `json:"building_id"`
	BuildingName string                          `json:"building_name"`
	Status       AnalysisStatus                  `json:"status"`
	Estimation   *EstimationResult               `json:"estimation,omitempty"`
	Scenarios    []RenovationScenario            `json:"scenarios,omitempty"`
	Financials   map[ScenarioID]FinancialOutcome `json:"financials,omitempty"`
	Error        string                          `json:"error,omitempty"`
}

// Scenario returns the scenario with the given id, or nil.
func (r *BuildingAnalysisResult) Scenario(id ScenarioID) *RenovationScenario {
	for i := range r.Scenarios {
		if r.Scenarios[i].ID == id {
			return &r.Scenarios[i]
		}
	}
	return nil
}

// ProgressFunc receives incremental batch progress. It is invoked exactly
// once per building completion, success or failure; completed increases by
// one per call and reaches total exactly once.
type ProgressFunc func(completed, total int, buildingName string)

// AnalysisProgress is the ephemeral progress snapshot reported to callers.
type AnalysisProgress struct {
	Completed       int    `json:"completed"`
	Total           int    `json:"total"`
	CurrentBuilding string `json:"current_building"`
}

// FundingConfig carries optional loan terms forwarded to the risk service.
// Nil fields are omitted from the request.
type FundingConfig struct {
	LoanAmount    *float64 `json:"loan_amount,omitempty"`
	LoanTermYears *int     `json:"loan_term_years,omitempty"`
}

// BatchSummary aggregates a batch's results. All figures are computed over
// success entries only; errored buildings contribute to Failed and nothing
// else.
type BatchSummary struct {
	Total                 int     `json:"total"`
	Succeeded             int     `json:"succeeded"`
	Failed                int     `json:"failed"`
	TotalCapex            float64 `json:"total_capex"`
	TotalAnnualSavingsKWh float64 `json:"total_annual_savings_kwh"`
	MeanNPV               float64 `json:"mean_npv"`
}

// Summarize computes batch aggregates from a result map.
func Summarize(results map[string]BuildingAnalysisResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	var npvSum float64
	for _, r := range results {
		if r.Status != StatusSuccess {
			if r.Status == StatusError {
				s.Failed++
			}
			continue
		}
		s.Succeeded++

		if out, ok := r.Financials[ScenarioRenovated]; ok {
			s.TotalCapex += out.Capex
			npvSum += out.NPV
		}
		cur := r.Scenario(ScenarioCurrent)
		ren := r.Scenario(ScenarioRenovated)
		if cur != nil && ren != nil && cur.AnnualEnergyNeeds > ren.AnnualEnergyNeeds {
			s.TotalAnnualSavingsKWh += cur.AnnualEnergyNeeds - ren.AnnualEnergyNeeds
		}
	}
	if s.Succeeded > 0 {
		s.MeanNPV = npvSum / float64(s.Succeeded)
	}
	return s
}
