package model

// Criterion names, in the fixed order used by the ranking engine's matrix.
const (
	CriterionEnergyEfficiency = "energy_efficiency"
	CriterionRESIntegration   = "res_integration"
	CriterionSustainability   = "sustainability"
	CriterionUserComfort      = "user_comfort"
	CriterionFinancial        = "financial"
)

// NumCriteria is the width of every criteria and weight vector.
const NumCriteria = 5

// Weights is a persona's priority profile over the five ranking criteria.
// A valid weight vector sums to 1.
type Weights struct {
	EnergyEfficiency float64 `yaml:"energy_efficiency" json:"energy_efficiency"`
	RESIntegration   float64 `yaml:"res_integration" json:"res_integration"`
	Sustainability   float64 `yaml:"sustainability" json:"sustainability"`
	UserComfort      float64 `yaml:"user_comfort" json:"user_comfort"`
	Financial        float64 `yaml:"financial" json:"financial"`
}

// Vector returns the weights in canonical criterion order.
func (w Weights) Vector() [NumCriteria]float64 {
	return [NumCriteria]float64{
		w.EnergyEfficiency,
		w.RESIntegration,
		w.Sustainability,
		w.UserComfort,
		w.Financial,
	}
}

// Sum returns the total weight mass.
func (w Weights) Sum() float64 {
	return w.EnergyEfficiency + w.RESIntegration + w.Sustainability + w.UserComfort + w.Financial
}

// Persona is a named stakeholder priority profile.
type Persona struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Weights     Weights `yaml:"weights" json:"weights"`
}

// CriteriaVector holds one alternative's normalized criterion values, each
// clamped to [0,1].
type CriteriaVector struct {
	EnergyEfficiency float64 `json:"energy_efficiency"`
	RESIntegration   float64 `json:"res_integration"`
	Sustainability   float64 `json:"sustainability"`
	UserComfort      float64 `json:"user_comfort"`
	Financial        float64 `json:"financial"`
}

// Vector returns the criteria in canonical criterion order.
func (c CriteriaVector) Vector() [NumCriteria]float64 {
	return [NumCriteria]float64{
		c.EnergyEfficiency,
		c.RESIntegration,
		c.Sustainability,
		c.UserComfort,
		c.Financial,
	}
}

// RankingResult is one ranked alternative. Score is the TOPSIS closeness
// coefficient in [0,1]; rank 1 is the best alternative.
type RankingResult struct {
	ScenarioID string  `json:"scenario_id"`
	Rank       int     `json:"rank"`
	Score      float64 `json:"score"`
}
