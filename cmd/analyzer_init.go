package main

import (
	"golang.org/x/time/rate"

	"github.com/renolab/renoplan/internal/pipeline"
	"github.com/renolab/renoplan/internal/ranking"
	"github.com/renolab/renoplan/pkg/estima"
	"github.com/renolab/renoplan/pkg/riskcast"
)

// analyzerEnv holds the initialized clients, the orchestrator and the
// ranking engine needed by the analyze/rank/serve commands.
type analyzerEnv struct {
	Orchestrator *pipeline.Orchestrator
	Engine       *ranking.Engine
	Catalog      *ranking.Catalog
}

// initAnalyzer validates config for the given mode and wires the service
// clients, the persona catalog and the orchestrator together.
func initAnalyzer(mode string) (*analyzerEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	catalog, err := ranking.LoadCatalog(cfg.Personas.Path)
	if err != nil {
		return nil, err
	}

	estimaClient := estima.NewClient(cfg.Estima.Key,
		estima.WithBaseURL(cfg.Estima.BaseURL),
		estima.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Estima.RateLimit), cfg.Estima.Burst)),
	)
	riskcastClient := riskcast.NewClient(cfg.Riskcast.Key,
		riskcast.WithBaseURL(cfg.Riskcast.BaseURL),
		riskcast.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Riskcast.RateLimit), cfg.Riskcast.Burst)),
	)

	p := pipeline.New(estimaClient, riskcastClient)

	return &analyzerEnv{
		Orchestrator: pipeline.NewOrchestrator(p, cfg.Batch.Concurrency),
		Engine:       ranking.NewEngine(catalog),
		Catalog:      catalog,
	}, nil
}
