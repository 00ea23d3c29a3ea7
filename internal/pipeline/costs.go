package pipeline

import "github.com/renolab/renoplan/internal/model"

// resolveCost applies the override precedence: a building-level figure wins
// over a batch-level one; nil means no override at all, so the financial
// service falls back to its dataset default. An explicit zero at either level
// is a real override and survives resolution.
func resolveCost(building, global *float64) *float64 {
	if building != nil {
		return building
	}
	return global
}

// resolveCosts resolves both cost fields independently.
func resolveCosts(building, global model.CostOverride) model.CostOverride {
	return model.CostOverride{
		Capex:             resolveCost(building.Capex, global.Capex),
		AnnualMaintenance: resolveCost(building.AnnualMaintenance, global.AnnualMaintenance),
	}
}
