package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func successResult(id string, currentNeeds, renovatedNeeds, capex, npv float64) BuildingAnalysisResult {
	return BuildingAnalysisResult{
		BuildingID: id,
		Status:     StatusSuccess,
		Scenarios: []RenovationScenario{
			{ID: ScenarioCurrent, AnnualEnergyNeeds: currentNeeds},
			{ID: ScenarioRenovated, AnnualEnergyNeeds: renovatedNeeds},
		},
		Financials: map[ScenarioID]FinancialOutcome{
			ScenarioRenovated: {ScenarioID: ScenarioRenovated, Capex: capex, NPV: npv},
		},
	}
}

func TestSummarize_SuccessOnly(t *testing.T) {
	results := map[string]BuildingAnalysisResult{
		"a": successResult("a", 10000, 7000, 50000, 12000),
		"b": successResult("b", 8000, 6000, 30000, 4000),
		"c": {BuildingID: "c", Status: StatusError, Error: "estimation service unavailable"},
	}

	s := Summarize(results)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 80000, s.TotalCapex, 0.001)
	assert.InDelta(t, 5000, s.TotalAnnualSavingsKWh, 0.001)
	// Mean over successes only, never counting the errored entry as zero.
	assert.InDelta(t, 8000, s.MeanNPV, 0.001)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.MeanNPV)
}

func TestSummarize_NegativeSavingsNotCounted(t *testing.T) {
	// A renovation that somehow increases needs must not subtract savings.
	results := map[string]BuildingAnalysisResult{
		"a": successResult("a", 5000, 6000, 10000, -2000),
	}
	s := Summarize(results)
	assert.Equal(t, 0.0, s.TotalAnnualSavingsKWh)
	assert.InDelta(t, -2000, s.MeanNPV, 0.001)
}

func TestScenarioLookup(t *testing.T) {
	r := successResult("a", 100, 80, 0, 0)
	assert.NotNil(t, r.Scenario(ScenarioCurrent))
	assert.Equal(t, 80.0, r.Scenario(ScenarioRenovated).AnnualEnergyNeeds)
	assert.Nil(t, r.Scenario(ScenarioID("other")))
}

func TestWeightsVectorOrder(t *testing.T) {
	w := Weights{EnergyEfficiency: 0.1, RESIntegration: 0.2, Sustainability: 0.3, UserComfort: 0.25, Financial: 0.15}
	v := w.Vector()
	assert.Equal(t, [NumCriteria]float64{0.1, 0.2, 0.3, 0.25, 0.15}, v)
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
}
