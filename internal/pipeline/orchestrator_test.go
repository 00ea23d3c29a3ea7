package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renolab/renoplan/internal/model"
)

func testBatch(n int) []model.BuildingDescriptor {
	out := make([]model.BuildingDescriptor, n)
	for i := range out {
		out[i] = testDescriptor(fmt.Sprintf("b%d", i))
	}
	return out
}

func TestAnalyzeEveryBuildingGetsAResult(t *testing.T) {
	o := NewOrchestrator(New(newMockEstima(), newMockRiskcast()), 3)

	buildings := testBatch(7)
	results, err := o.Analyze(context.Background(), buildings, BatchParams{ProjectLifetimeYears: 30}, nil)
	require.NoError(t, err)

	require.Len(t, results, 7)
	for _, b := range buildings {
		res, ok := results[b.ID]
		require.True(t, ok, "missing result for %s", b.ID)
		assert.Equal(t, model.StatusSuccess, res.Status)
	}
}

func TestAnalyzeProgressMonotonicAndExactlyOnce(t *testing.T) {
	o := NewOrchestrator(New(newMockEstima(), newMockRiskcast()), 2)

	var mu sync.Mutex
	var seen []int
	results, err := o.Analyze(context.Background(), testBatch(5), BatchParams{ProjectLifetimeYears: 30},
		func(completed, total int, buildingName string) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 5, total)
			assert.NotEmpty(t, buildingName)
			seen = append(seen, completed)
		})
	require.NoError(t, err)
	require.Len(t, results, 5)

	// One callback per building, completed counting 1..N in order.
	require.Len(t, seen, 5)
	for i, c := range seen {
		assert.Equal(t, i+1, c)
	}
}

func TestAnalyzeFailureIsolatedToItsBuilding(t *testing.T) {
	est := newMockEstima()
	est.failEstimate["b3"] = true
	o := NewOrchestrator(New(est, newMockRiskcast()), 3)

	calls := 0
	results, err := o.Analyze(context.Background(), testBatch(6), BatchParams{ProjectLifetimeYears: 30},
		func(completed, total int, buildingName string) { calls++ })
	require.NoError(t, err)
	require.Len(t, results, 6)

	// Failures still count as completions.
	assert.Equal(t, 6, calls)

	failed := results["b3"]
	assert.Equal(t, model.StatusError, failed.Status)
	assert.Contains(t, failed.Error, "estimate building b3")
	assert.Nil(t, failed.Estimation)

	for id, res := range results {
		if id == "b3" {
			continue
		}
		assert.Equal(t, model.StatusSuccess, res.Status, "building %s should be unaffected", id)
	}
}

func TestAnalyzeRespectsConcurrencyLimit(t *testing.T) {
	est := newMockEstima()
	var inflight, peak atomic.Int64
	est.onEstimate = func(string) {
		cur := inflight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
	}

	o := NewOrchestrator(New(est, newMockRiskcast()), 3)
	_, err := o.Analyze(context.Background(), testBatch(10), BatchParams{ProjectLifetimeYears: 30}, nil)
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int64(3))
}

func TestAnalyzeWindowsAreConsecutive(t *testing.T) {
	est := newMockEstima()
	o := NewOrchestrator(New(est, newMockRiskcast()), 3)

	var mu sync.Mutex
	completed := 0
	startedAt := make(map[string]int) // building -> completed count when it started

	est.onEstimate = func(id string) {
		mu.Lock()
		startedAt[id] = completed
		mu.Unlock()
	}

	_, err := o.Analyze(context.Background(), testBatch(7), BatchParams{ProjectLifetimeYears: 30},
		func(c, total int, name string) {
			mu.Lock()
			completed = c
			mu.Unlock()
		})
	require.NoError(t, err)

	// A building in window w (size 3) can only start once every building
	// of the previous windows has settled.
	for i := 0; i < 7; i++ {
		id := fmt.Sprintf("b%d", i)
		windowFloor := (i / 3) * 3
		assert.GreaterOrEqual(t, startedAt[id], windowFloor,
			"building %s started before its window opened", id)
	}
}

func TestAnalyzeEmptyBatch(t *testing.T) {
	o := NewOrchestrator(New(newMockEstima(), newMockRiskcast()), 3)

	called := false
	results, err := o.Analyze(context.Background(), nil, BatchParams{ProjectLifetimeYears: 30},
		func(int, int, string) { called = true })
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, called)
}

func TestAnalyzeCancelledContext(t *testing.T) {
	o := NewOrchestrator(New(newMockEstima(), newMockRiskcast()), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Analyze(ctx, testBatch(3), BatchParams{ProjectLifetimeYears: 30}, nil)
	require.Error(t, err)
}

func TestNewOrchestratorDefaultConcurrency(t *testing.T) {
	o := NewOrchestrator(New(newMockEstima(), newMockRiskcast()), 0)
	assert.Equal(t, DefaultConcurrency, o.concurrency)
}
