// Package ranking orders renovation alternatives with TOPSIS: criteria are
// normalized to [0,1], weighted by a stakeholder persona, and scored by
// geometric closeness to the ideal-best and ideal-worst alternatives.
package ranking

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/renolab/renoplan/internal/model"
)

// epcScale is the ordered EPC class scale, worst first.
var epcScale = []string{"G", "F", "E", "D", "C", "B", "A", "A+"}

// epcPosition returns the normalized scale position of a class in [0,1].
// Unknown classes map to 0.
func epcPosition(class string) float64 {
	for i, c := range epcScale {
		if c == class {
			return float64(i) / float64(len(epcScale)-1)
		}
	}
	return 0
}

func clip01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// npvScore squashes an NPV figure into [0,1] with a saturating transform
// centered at 0.5 for NPV=0.
func npvScore(npv float64) float64 {
	return 0.5 * (1 + math.Tanh(npv/50000))
}

// extractCriteria derives one alternative's criteria vector from its scenario
// and financial outcome, against the given baseline energy needs.
func extractCriteria(sc model.RenovationScenario, out model.FinancialOutcome, baselineNeeds float64) model.CriteriaVector {
	var efficiency float64
	if baselineNeeds > 0 {
		efficiency = clip01(1 - sc.AnnualEnergyNeeds/baselineNeeds)
	}
	res := clip01(epcPosition(sc.EPCClass))

	roiScore := clip01(out.ROI / 200)
	financial := clip01((roiScore + npvScore(out.NPV)) / 2)

	return model.CriteriaVector{
		EnergyEfficiency: efficiency,
		RESIntegration:   res,
		Sustainability:   clip01((efficiency + res) / 2),
		UserComfort:      clip01(sc.ComfortIndex / 100),
		Financial:        financial,
	}
}

// Engine ranks alternatives against the personas of a catalog.
type Engine struct {
	catalog *Catalog
}

// NewEngine creates an Engine backed by the given persona catalog.
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Rank orders a building's non-baseline scenarios for a persona. The current
// scenario supplies the energy baseline and is excluded from the ranking; if
// no current scenario exists, the first alternative's needs serve as
// baseline. An unknown persona id is an error.
func (e *Engine) Rank(scenarios []model.RenovationScenario, outcomes map[model.ScenarioID]model.FinancialOutcome, personaID string) ([]model.RankingResult, error) {
	persona, err := e.catalog.Get(personaID)
	if err != nil {
		return nil, err
	}

	var baselineNeeds float64
	var hasBaseline bool
	var alternatives []model.RenovationScenario
	for _, sc := range scenarios {
		if sc.ID == model.ScenarioCurrent {
			baselineNeeds = sc.AnnualEnergyNeeds
			hasBaseline = true
			continue
		}
		alternatives = append(alternatives, sc)
	}
	// The first-alternative fallback applies only when no current scenario
	// exists at all. A present baseline with zero needs stays zero, which
	// zeroes every alternative's efficiency.
	if !hasBaseline && len(alternatives) > 0 {
		baselineNeeds = alternatives[0].AnnualEnergyNeeds
	}

	ids := make([]string, len(alternatives))
	matrix := make([]model.CriteriaVector, len(alternatives))
	for i, sc := range alternatives {
		ids[i] = string(sc.ID)
		matrix[i] = extractCriteria(sc, outcomes[sc.ID], baselineNeeds)
	}

	return rankVectors(ids, matrix, persona.Weights), nil
}

// RankPortfolio ranks whole buildings instead of scenarios: each successful
// building contributes its renovated scenario's criteria, computed against
// its own current-scenario baseline. Errored buildings are skipped. ids fixes
// the input order for the stable tie-break.
func (e *Engine) RankPortfolio(ids []string, results map[string]model.BuildingAnalysisResult, personaID string) ([]model.RankingResult, error) {
	persona, err := e.catalog.Get(personaID)
	if err != nil {
		return nil, err
	}

	var keys []string
	var matrix []model.CriteriaVector
	for _, id := range ids {
		res, ok := results[id]
		if !ok || res.Status != model.StatusSuccess {
			continue
		}
		cur := res.Scenario(model.ScenarioCurrent)
		ren := res.Scenario(model.ScenarioRenovated)
		if cur == nil || ren == nil {
			continue
		}
		keys = append(keys, id)
		matrix = append(matrix, extractCriteria(*ren, res.Financials[model.ScenarioRenovated], cur.AnnualEnergyNeeds))
	}

	return rankVectors(keys, matrix, persona.Weights), nil
}

// rankVectors runs the TOPSIS core over a set of alternatives in input
// order. A single alternative is best by definition; ties keep input order.
func rankVectors(ids []string, matrix []model.CriteriaVector, weights model.Weights) []model.RankingResult {
	switch len(ids) {
	case 0:
		return []model.RankingResult{}
	case 1:
		return []model.RankingResult{{ScenarioID: ids[0], Rank: 1, Score: 1}}
	}

	w := weights.Vector()
	weighted := make([][model.NumCriteria]float64, len(matrix))
	for i, cv := range matrix {
		v := cv.Vector()
		for j := range v {
			weighted[i][j] = v[j] * w[j]
		}
	}

	var best, worst [model.NumCriteria]float64
	for j := 0; j < model.NumCriteria; j++ {
		best[j] = weighted[0][j]
		worst[j] = weighted[0][j]
		for i := 1; i < len(weighted); i++ {
			best[j] = math.Max(best[j], weighted[i][j])
			worst[j] = math.Min(worst[j], weighted[i][j])
		}
	}

	results := make([]model.RankingResult, len(ids))
	for i := range weighted {
		var dBest, dWorst float64
		for j := 0; j < model.NumCriteria; j++ {
			dBest += (weighted[i][j] - best[j]) * (weighted[i][j] - best[j])
			dWorst += (weighted[i][j] - worst[j]) * (weighted[i][j] - worst[j])
		}
		dBest = math.Sqrt(dBest)
		dWorst = math.Sqrt(dWorst)

		score := 0.5
		if dBest+dWorst > 0 {
			score = dWorst / (dBest + dWorst)
		}
		results[i] = model.RankingResult{ScenarioID: ids[i], Score: score}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// Personas exposes the engine's catalog entries, for listing.
func (e *Engine) Personas() []model.Persona {
	return e.catalog.List()
}

// ErrUnknownPersona marks a ranking request against a persona id the catalog
// does not know.
var ErrUnknownPersona = eris.New("ranking: unknown persona")
