package main

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/renolab/renoplan/internal/model"
	"github.com/renolab/renoplan/internal/report"
)

var (
	rankResultsFile string
	rankPersona     string
	rankOutput      string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank analyzed buildings for a stakeholder persona",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initAnalyzer("rank")
		if err != nil {
			return err
		}

		results, err := loadResults(rankResultsFile)
		if err != nil {
			return err
		}

		// Result maps carry no order, so rank over sorted ids to keep
		// the tie-break deterministic across runs.
		ids := make([]string, 0, len(results))
		for id := range results {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		ranked, err := env.Engine.RankPortfolio(ids, results, rankPersona)
		if err != nil {
			return err
		}

		if rankOutput == "json" {
			return report.WriteJSON(os.Stdout, ranked)
		}
		persona, err := env.Catalog.Get(rankPersona)
		if err != nil {
			return err
		}
		return report.WriteRankingTable(os.Stdout, persona, ranked)
	},
}

func loadResults(path string) (map[string]model.BuildingAnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "rank: read results file")
	}
	var results map[string]model.BuildingAnalysisResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, eris.Wrap(err, "rank: parse results file")
	}
	if len(results) == 0 {
		return nil, eris.New("rank: results file is empty")
	}
	return results, nil
}

func init() {
	rankCmd.Flags().StringVarP(&rankResultsFile, "results", "r", "", "results JSON produced by analyze --save")
	rankCmd.Flags().StringVarP(&rankPersona, "persona", "p", "homeowner", "persona id to rank for")
	rankCmd.Flags().StringVarP(&rankOutput, "output", "o", "table", "output format: table, json")
	rankCmd.MarkFlagRequired("results")
	rootCmd.AddCommand(rankCmd)
}
