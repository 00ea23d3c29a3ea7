package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/renolab/renoplan/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "renoplan",
	Short: "Building-renovation decision support",
	Long:  "Estimates baseline energy performance per building, evaluates renovation scenarios, computes financial outcomes, and ranks alternatives against stakeholder priority profiles.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
