package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renolab/renoplan/internal/ranking"
	"github.com/renolab/renoplan/internal/report"
)

var personasOutput string

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the available stakeholder personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := ranking.LoadCatalog(cfg.Personas.Path)
		if err != nil {
			return err
		}

		personas := catalog.List()
		if personasOutput == "json" {
			return report.WriteJSON(os.Stdout, personas)
		}

		for _, p := range personas {
			w := p.Weights
			fmt.Printf("%-12s %s\n", p.ID, p.Description)
			fmt.Printf("             efficiency %.2f | res %.2f | sustainability %.2f | comfort %.2f | financial %.2f\n",
				w.EnergyEfficiency, w.RESIntegration, w.Sustainability, w.UserComfort, w.Financial)
		}
		return nil
	},
}

func init() {
	personasCmd.Flags().StringVarP(&personasOutput, "output", "o", "table", "output format: table, json")
	rootCmd.AddCommand(personasCmd)
}
