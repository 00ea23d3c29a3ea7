package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/renolab/renoplan/internal/load"
	"github.com/renolab/renoplan/internal/model"
	"github.com/renolab/renoplan/internal/normalize"
	"github.com/renolab/renoplan/internal/pipeline"
	"github.com/renolab/renoplan/internal/report"
	"github.com/renolab/renoplan/pkg/riskcast"
)

var (
	analyzeBuildingsFile string
	analyzeMeasures      []string
	analyzeLifetime      int
	analyzeCapex         float64
	analyzeMaintenance   float64
	analyzeLoanAmount    float64
	analyzeLoanTerm      int
	analyzeTier          string
	analyzeOutput        string
	analyzeSaveFile      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the renovation analysis over a batch of buildings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAnalyzer("analyze")
		if err != nil {
			return err
		}

		raws, err := load.LoadBuildings(analyzeBuildingsFile)
		if err != nil {
			return err
		}

		buildings, rejected := normalize.All(raws)
		for _, rej := range rejected {
			zap.L().Warn("building rejected",
				zap.Int("row", rej.Index+1),
				zap.String("id", rej.ID),
				zap.Error(rej.Errors),
			)
		}
		if len(buildings) == 0 {
			return eris.Errorf("analyze: no valid buildings in %s (%d rejected)", analyzeBuildingsFile, len(rejected))
		}

		params := pipeline.BatchParams{
			SelectedMeasures:     analyzeMeasures,
			ProjectLifetimeYears: lifetimeOrDefault(),
			OutputTier:           riskcast.OutputTier(analyzeTier),
		}
		// Flags distinguish "not passed" from an explicit zero; only a
		// flag the user actually set becomes an override.
		if cmd.Flags().Changed("capex") {
			params.GlobalCosts.Capex = &analyzeCapex
		}
		if cmd.Flags().Changed("maintenance") {
			params.GlobalCosts.AnnualMaintenance = &analyzeMaintenance
		}
		if cmd.Flags().Changed("loan-amount") {
			params.Funding.LoanAmount = &analyzeLoanAmount
		}
		if cmd.Flags().Changed("loan-term") {
			params.Funding.LoanTermYears = &analyzeLoanTerm
		}

		results, err := env.Orchestrator.Analyze(ctx, buildings, params,
			func(completed, total int, buildingName string) {
				fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", completed, total, buildingName)
			})
		if err != nil {
			return err
		}

		if analyzeSaveFile != "" {
			if err := saveResults(analyzeSaveFile, results); err != nil {
				return err
			}
			zap.L().Info("results saved", zap.String("path", analyzeSaveFile))
		}

		ids := make([]string, len(buildings))
		for i, b := range buildings {
			ids[i] = b.ID
		}
		switch analyzeOutput {
		case "json":
			return report.WriteJSON(os.Stdout, results)
		case "csv":
			return report.WriteAnalysisCSV(os.Stdout, ids, results)
		default:
			return report.WriteAnalysisTable(os.Stdout, ids, results)
		}
	},
}

func lifetimeOrDefault() int {
	if analyzeLifetime > 0 {
		return analyzeLifetime
	}
	return cfg.Analysis.ProjectLifetimeYears
}

func saveResults(path string, results map[string]model.BuildingAnalysisResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "analyze: create results file")
	}
	defer f.Close()
	return report.WriteJSON(f, results)
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeBuildingsFile, "buildings", "b", "", "buildings file (.json or .xlsx)")
	analyzeCmd.Flags().StringSliceVarP(&analyzeMeasures, "measures", "m", nil, "renovation measures to evaluate")
	analyzeCmd.Flags().IntVar(&analyzeLifetime, "lifetime", 0, "project lifetime in years (default from config)")
	analyzeCmd.Flags().Float64Var(&analyzeCapex, "capex", 0, "global capex override")
	analyzeCmd.Flags().Float64Var(&analyzeMaintenance, "maintenance", 0, "global annual maintenance override")
	analyzeCmd.Flags().Float64Var(&analyzeLoanAmount, "loan-amount", 0, "loan amount forwarded to the risk service")
	analyzeCmd.Flags().IntVar(&analyzeLoanTerm, "loan-term", 0, "loan term in years")
	analyzeCmd.Flags().StringVar(&analyzeTier, "tier", "point", "risk output tier: point, percentiles, full")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "table", "output format: table, csv, json")
	analyzeCmd.Flags().StringVar(&analyzeSaveFile, "save", "", "write results JSON to this file for later ranking")
	analyzeCmd.MarkFlagRequired("buildings")
	rootCmd.AddCommand(analyzeCmd)
}
