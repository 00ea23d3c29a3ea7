package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/renolab/renoplan/internal/model"
	"github.com/renolab/renoplan/internal/normalize"
	"github.com/renolab/renoplan/internal/pipeline"
	"github.com/renolab/renoplan/internal/ranking"
	"github.com/renolab/renoplan/pkg/riskcast"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP analysis server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAnalyzer("serve")
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newServeMux(env),
		}

		go func() {
			<-ctx.Done()
			shutdownGracefully(srv)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownGracefully drains in-flight requests before closing the server.
// The signal context is already cancelled by the time this runs, so the
// drain gets its own deadline.
func shutdownGracefully(srv *http.Server) {
	zap.L().Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

// newServeMux wires the HTTP routes against an initialized environment.
func newServeMux(env *analyzerEnv) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /personas", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, env.Catalog.List())
	})

	mux.HandleFunc("POST /analyze", func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if len(req.Buildings) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "buildings is required"})
			return
		}

		buildings, rejected := normalize.All(req.Buildings)
		if len(buildings) == 0 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    "no valid buildings",
				"rejected": rejected,
			})
			return
		}

		lifetime := req.ProjectLifetimeYears
		if lifetime <= 0 {
			lifetime = cfg.Analysis.ProjectLifetimeYears
		}
		results, err := env.Orchestrator.Analyze(r.Context(), buildings, pipeline.BatchParams{
			SelectedMeasures:     req.Measures,
			Funding:              req.Funding,
			ProjectLifetimeYears: lifetime,
			GlobalCosts:          req.GlobalCosts,
			OutputTier:           riskcast.OutputTier(req.OutputTier),
		}, nil)
		if err != nil {
			zap.L().Error("analysis failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "analysis failed"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"results":  results,
			"summary":  model.Summarize(results),
			"rejected": rejected,
		})
	})

	mux.HandleFunc("POST /rank", func(w http.ResponseWriter, r *http.Request) {
		var req rankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		ranked, err := env.Engine.Rank(req.Scenarios, req.Outcomes, req.PersonaID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ranking.ErrUnknownPersona) {
				status = http.StatusNotFound
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, ranked)
	})

	return mux
}

type analyzeRequest struct {
	Buildings            []model.RawBuilding `json:"buildings"`
	Measures             []string            `json:"measures"`
	Funding              model.FundingConfig `json:"funding"`
	GlobalCosts          model.CostOverride  `json:"global_costs"`
	ProjectLifetimeYears int                 `json:"project_lifetime_years"`
	OutputTier           string              `json:"output_tier"`
}

type rankRequest struct {
	Scenarios []model.RenovationScenario                  `json:"scenarios"`
	Outcomes  map[model.ScenarioID]model.FinancialOutcome `json:"outcomes"`
	PersonaID string                                      `json:"persona_id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
