package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/renolab/renoplan/internal/model"
)

// DefaultConcurrency is the window size used when none is configured.
const DefaultConcurrency = 3

// Orchestrator fans a batch of buildings out over the per-building pipeline
// in consecutive windows of fixed size. A window must settle completely
// before the next one starts.
type Orchestrator struct {
	pipeline    *Pipeline
	concurrency int
}

// NewOrchestrator creates an Orchestrator with the given window size.
// Non-positive values fall back to DefaultConcurrency.
func NewOrchestrator(p *Pipeline, concurrency int) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{pipeline: p, concurrency: concurrency}
}

// Analyze runs the pipeline for every building and returns one result per
// building, keyed by building ID. A building failure is recorded in its own
// entry and never disturbs the rest of the batch. onProgress, when non-nil,
// is called exactly once per completed building with a strictly increasing
// completed count.
func (o *Orchestrator) Analyze(ctx context.Context, buildings []model.BuildingDescriptor, params BatchParams, onProgress model.ProgressFunc) (map[string]model.BuildingAnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "orchestrator: batch aborted before start")
	}

	runID := uuid.NewString()
	log := zap.L().With(zap.String("run_id", runID))
	total := len(buildings)
	log.Info("orchestrator: starting batch",
		zap.Int("buildings", total),
		zap.Int("concurrency", o.concurrency),
	)

	results := make(map[string]model.BuildingAnalysisResult, total)

	var mu sync.Mutex
	completed := 0

	// settle records a building's terminal result and reports progress.
	// Held under one lock so the completed count the callback sees is
	// strictly monotonic.
	settle := func(res model.BuildingAnalysisResult) {
		mu.Lock()
		defer mu.Unlock()
		results[res.BuildingID] = res
		completed++
		if onProgress != nil {
			onProgress(completed, total, res.BuildingName)
		}
	}

	for start := 0; start < total; start += o.concurrency {
		end := start + o.concurrency
		if end > total {
			end = total
		}
		window := buildings[start:end]

		// A plain group, not WithContext: one building's failure must
		// not cancel its window siblings.
		var g errgroup.Group
		for _, b := range window {
			g.Go(func() error {
				res, err := o.pipeline.RunBuilding(ctx, b, params)
				if err != nil {
					log.Warn("orchestrator: building failed",
						zap.String("building", b.ID),
						zap.Error(err),
					)
					settle(model.BuildingAnalysisResult{
						BuildingID:   b.ID,
						BuildingName: b.Name,
						Status:       model.StatusError,
						Error:        err.Error(),
					})
					return nil
				}
				settle(*res)
				return nil
			})
		}
		// Waiting here is what makes windows consecutive: the next
		// window only opens once every building in this one settled.
		g.Wait() //nolint:errcheck // workers always return nil

		if err := ctx.Err(); err != nil {
			return results, eris.Wrap(err, "orchestrator: batch cancelled")
		}
	}

	summary := model.Summarize(results)
	log.Info("orchestrator: batch finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return results, nil
}
