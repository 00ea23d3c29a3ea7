// Package report renders analysis and ranking results as console tables or
// JSON.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rotisserie/eris"

	"github.com/renolab/renoplan/internal/model"
)

var (
	strongLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	goodLabel   = color.New(color.FgCyan).SprintFunc()
	fairLabel   = color.New(color.FgYellow).SprintFunc()
	weakLabel   = color.New(color.FgRed).SprintFunc()
	errLabel    = color.New(color.FgRed, color.Bold).SprintFunc()
)

// scoreLabel buckets a closeness coefficient into a colored verdict.
func scoreLabel(score float64) string {
	switch {
	case score >= 0.75:
		return strongLabel("strong")
	case score >= 0.5:
		return goodLabel("good")
	case score >= 0.25:
		return fairLabel("fair")
	default:
		return weakLabel("weak")
	}
}

// WriteAnalysisTable renders one row per building, in the given id order,
// followed by a batch summary line.
func WriteAnalysisTable(w io.Writer, ids []string, results map[string]model.BuildingAnalysisResult) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Building", "Status", "EPC", "EPC (reno)", "Savings kWh/y", "NPV", "Payback y"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var rows [][]string
	for _, id := range ids {
		res, ok := results[id]
		if !ok {
			continue
		}
		if res.Status != model.StatusSuccess {
			rows = append(rows, []string{res.BuildingName, errLabel(string(res.Status)), "-", "-", "-", "-", "-"})
			continue
		}

		cur := res.Scenario(model.ScenarioCurrent)
		ren := res.Scenario(model.ScenarioRenovated)
		out := res.Financials[model.ScenarioRenovated]

		savings := cur.AnnualEnergyNeeds - ren.AnnualEnergyNeeds
		if savings < 0 {
			savings = 0
		}
		rows = append(rows, []string{
			res.BuildingName,
			string(res.Status),
			cur.EPCClass,
			ren.EPCClass,
			fmt.Sprintf("%.0f", savings),
			fmt.Sprintf("%.0f", out.NPV),
			fmt.Sprintf("%.1f", out.SimplePaybackYears),
		})
	}

	if err := table.Bulk(rows); err != nil {
		return eris.Wrap(err, "report: fill analysis table")
	}
	if err := table.Render(); err != nil {
		return eris.Wrap(err, "report: render analysis table")
	}

	s := model.Summarize(results)
	fmt.Fprintf(w, "\n%d buildings: %d succeeded, %d failed | total capex %.0f | total savings %.0f kWh/y | mean NPV %.0f\n",
		s.Total, s.Succeeded, s.Failed, s.TotalCapex, s.TotalAnnualSavingsKWh, s.MeanNPV)
	return nil
}

// WriteRankingTable renders a persona's ranking, best first.
func WriteRankingTable(w io.Writer, persona model.Persona, ranked []model.RankingResult) error {
	fmt.Fprintf(w, "Ranking for %s\n\n", persona.Name)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Alternative", "Score", "Verdict"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	rows := make([][]string, len(ranked))
	for i, r := range ranked {
		rows[i] = []string{
			fmt.Sprintf("%d", r.Rank),
			r.ScenarioID,
			fmt.Sprintf("%.3f", r.Score),
			scoreLabel(r.Score),
		}
	}

	if err := table.Bulk(rows); err != nil {
		return eris.Wrap(err, "report: fill ranking table")
	}
	if err := table.Render(); err != nil {
		return eris.Wrap(err, "report: render ranking table")
	}
	return nil
}

// WriteAnalysisCSV renders one CSV row per building, in the given id order.
func WriteAnalysisCSV(w io.Writer, ids []string, results map[string]model.BuildingAnalysisResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"building_id", "building_name", "status", "epc_current", "epc_renovated", "annual_savings_kwh", "capex", "npv", "simple_payback_years", "error"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}

	for _, id := range ids {
		res, ok := results[id]
		if !ok {
			continue
		}
		if res.Status != model.StatusSuccess {
			if err := cw.Write([]string{res.BuildingID, res.BuildingName, string(res.Status), "", "", "", "", "", "", res.Error}); err != nil {
				return eris.Wrap(err, "report: write csv row")
			}
			continue
		}

		cur := res.Scenario(model.ScenarioCurrent)
		ren := res.Scenario(model.ScenarioRenovated)
		out := res.Financials[model.ScenarioRenovated]

		savings := cur.AnnualEnergyNeeds - ren.AnnualEnergyNeeds
		if savings < 0 {
			savings = 0
		}
		row := []string{
			res.BuildingID,
			res.BuildingName,
			string(res.Status),
			cur.EPCClass,
			ren.EPCClass,
			strconv.FormatFloat(savings, 'f', 0, 64),
			strconv.FormatFloat(out.Capex, 'f', 0, 64),
			strconv.FormatFloat(out.NPV, 'f', 0, 64),
			strconv.FormatFloat(out.SimplePaybackYears, 'f', 1, 64),
			"",
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	return nil
}

// WriteJSON renders any result value as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "report: encode json")
	}
	return nil
}
