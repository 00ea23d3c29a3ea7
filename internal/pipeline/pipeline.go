// Package pipeline runs the per-building analysis chain and the batch
// orchestrator that fans it out over a portfolio.
package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/renolab/renoplan/internal/model"
	"github.com/renolab/renoplan/pkg/estima"
	"github.com/renolab/renoplan/pkg/riskcast"
)

// Pipeline runs the three-stage analysis for a single building:
// estimate, evaluate scenarios, assess financials. Collaborators are
// injected at construction.
type Pipeline struct {
	estimation estima.Client
	financial  riskcast.Client
}

// New creates a Pipeline with the given collaborators.
func New(estimation estima.Client, financial riskcast.Client) *Pipeline {
	return &Pipeline{
		estimation: estimation,
		financial:  financial,
	}
}

// BatchParams holds the per-batch inputs shared by every building.
type BatchParams struct {
	SelectedMeasures     []string
	Funding              model.FundingConfig
	ProjectLifetimeYears int
	GlobalCosts          model.CostOverride
	OutputTier           riskcast.OutputTier
}

// RunBuilding executes stages A (estimate), B (evaluate) and C (financial)
// for one building, in strict order. Any stage failure aborts the building
// and surfaces the underlying cause.
func (p *Pipeline) RunBuilding(ctx context.Context, desc model.BuildingDescriptor, params BatchParams) (*model.BuildingAnalysisResult, error) {
	log := zap.L().With(zap.String("building", desc.ID))

	// Stage A: baseline estimate.
	estimation, err := p.estimate(ctx, desc)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: estimate building %s", desc.ID)
	}

	// Stage B: scenario evaluation.
	scenarios, err := p.evaluate(ctx, desc, estimation, params.SelectedMeasures)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: evaluate building %s", desc.ID)
	}

	// Stage C: financial assessment, once per scenario.
	current := scenarios[0]
	financials := make(map[model.ScenarioID]model.FinancialOutcome, len(scenarios))
	for _, sc := range scenarios {
		outcome, err := p.assess(ctx, desc, current, sc, params)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: assess scenario %s of building %s", sc.ID, desc.ID)
		}
		financials[sc.ID] = *outcome
	}

	log.Info("pipeline: building analyzed",
		zap.String("epc_current", current.EPCClass),
		zap.String("epc_renovated", scenarios[1].EPCClass),
		zap.Float64("npv_renovated", financials[model.ScenarioRenovated].NPV),
	)

	return &model.BuildingAnalysisResult{
		BuildingID:   desc.ID,
		BuildingName: desc.Name,
		Status:       model.StatusSuccess,
		Estimation:   estimation,
		Scenarios:    scenarios,
		Financials:   financials,
	}, nil
}

func (p *Pipeline) estimate(ctx context.Context, desc model.BuildingDescriptor) (*model.EstimationResult, error) {
	resp, err := p.estimation.Estimate(ctx, estima.EstimateRequest{Building: toWireBuilding(desc)})
	if err != nil {
		return nil, err
	}

	return &model.EstimationResult{
		AnnualEnergyNeeds: *resp.AnnualEnergyNeeds,
		AnnualEnergyCost:  *resp.AnnualEnergyCost,
		EPCClass:          resp.EPCClass,
		ComfortIndex:      *resp.ComfortIndex,
		FlexibilityIndex:  *resp.FlexibilityIndex,
	}, nil
}

// evaluate returns the scenario pair ordered current first, renovated second.
func (p *Pipeline) evaluate(ctx context.Context, desc model.BuildingDescriptor, est *model.EstimationResult, measures []string) ([]model.RenovationScenario, error) {
	resp, err := p.estimation.Evaluate(ctx, estima.EvaluateRequest{
		Building: toWireBuilding(desc),
		Baseline: &estima.Baseline{
			AnnualEnergyNeeds: est.AnnualEnergyNeeds,
			AnnualEnergyCost:  est.AnnualEnergyCost,
			EPCClass:          est.EPCClass,
			ComfortIndex:      est.ComfortIndex,
			FlexibilityIndex:  est.FlexibilityIndex,
		},
		Measures: measures,
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.RenovationScenario, 2)
	for _, sc := range resp.Scenarios {
		mapped := model.RenovationScenario{
			ID:                model.ScenarioID(sc.ID),
			EPCClass:          sc.EPCClass,
			AnnualEnergyNeeds: *sc.AnnualEnergyNeeds,
			AnnualEnergyCost:  *sc.AnnualEnergyCost,
			ComfortIndex:      *sc.ComfortIndex,
			FlexibilityIndex:  *sc.FlexibilityIndex,
			Measures:          sc.Measures,
		}
		if mapped.ID == model.ScenarioCurrent {
			out[0] = mapped
		} else {
			out[1] = mapped
		}
	}
	return out, nil
}

func (p *Pipeline) assess(ctx context.Context, desc model.BuildingDescriptor, current, sc model.RenovationScenario, params BatchParams) (*model.FinancialOutcome, error) {
	costs := resolveCosts(desc.Costs, params.GlobalCosts)

	savings := current.AnnualEnergyNeeds - sc.AnnualEnergyNeeds
	if savings < 0 {
		savings = 0
	}

	resp, err := p.financial.AssessRisk(ctx, riskcast.AssessRequest{
		AnnualEnergySavingsKWh: savings,
		ProjectLifetimeYears:   params.ProjectLifetimeYears,
		Capex:                  costs.Capex,
		AnnualMaintenance:      costs.AnnualMaintenance,
		LoanAmount:             params.Funding.LoanAmount,
		LoanTermYears:          params.Funding.LoanTermYears,
		OutputTier:             params.OutputTier,
	})
	if err != nil {
		return nil, err
	}

	outcome := &model.FinancialOutcome{
		ScenarioID:             sc.ID,
		Capex:                  resp.Point.CapexUsed,
		AnnualMaintenance:      resp.Point.AnnualMaintenanceUsed,
		NPV:                    resp.Point.NPV,
		IRR:                    resp.Point.IRR,
		ROI:                    resp.Point.ROI,
		SimplePaybackYears:     resp.Point.SimplePaybackYears,
		DiscountedPaybackYears: resp.Point.DiscountedPaybackYears,
		MonthlySavings:         resp.Point.MonthlySavings,
		SuccessProbability:     resp.Point.SuccessProbability,
		Percentiles:            resp.Percentiles,
		Probabilities:          resp.Probabilities,
	}

	// Fold probability-keyed metadata into the outcome alongside any
	// tier-gated probabilities the reply already carried.
	for key, val := range resp.Metadata {
		if !isProbabilityKey(key) {
			continue
		}
		if outcome.Probabilities == nil {
			outcome.Probabilities = make(map[string]float64)
		}
		if _, exists := outcome.Probabilities[key]; !exists {
			outcome.Probabilities[key] = val
		}
	}

	return outcome, nil
}

// isProbabilityKey reports whether a metadata key follows the risk service's
// probability naming conventions.
func isProbabilityKey(key string) bool {
	k := strings.ToLower(key)
	return strings.HasPrefix(k, "probability_") ||
		strings.HasPrefix(k, "prob_") ||
		strings.HasSuffix(k, "_probability")
}

func toWireBuilding(desc model.BuildingDescriptor) estima.Building {
	lat, lng := desc.Coordinates()
	return estima.Building{
		ID:               desc.ID,
		Country:          desc.Country,
		Category:         desc.Category,
		ConstructionYear: desc.ConstructionYear,
		Period:           string(desc.Period),
		Floors:           desc.Floors,
		FloorAreaM2:      desc.FloorAreaM2,
		Latitude:         lat,
		Longitude:        lng,
		Archetype:        desc.Archetype,
		Modifications:    desc.Modifications,
	}
}
