package main

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renolab/renoplan/internal/config"
	"github.com/renolab/renoplan/internal/pipeline"
	"github.com/renolab/renoplan/internal/ranking"
	"github.com/renolab/renoplan/pkg/estima"
	"github.com/renolab/renoplan/pkg/riskcast"
)

func testEnv(t *testing.T) *analyzerEnv {
	t.Helper()
	cfg = &config.Config{}
	cfg.Batch.Concurrency = 3
	cfg.Analysis.ProjectLifetimeYears = 30

	catalog, err := ranking.DefaultCatalog()
	require.NoError(t, err)

	p := pipeline.New(estima.NewClient("test"), riskcast.NewClient("test"))
	return &analyzerEnv{
		Orchestrator: pipeline.NewOrchestrator(p, cfg.Batch.Concurrency),
		Engine:       ranking.NewEngine(catalog),
		Catalog:      catalog,
	}
}

func TestServeHealth(t *testing.T) {
	mux := newServeMux(testEnv(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServePersonas(t *testing.T) {
	mux := newServeMux(testEnv(t))

	req := httptest.NewRequest(http.MethodGet, "/personas", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"homeowner"`)
	assert.Contains(t, rec.Body.String(), `"investor"`)
}

func TestServeAnalyzeRejectsBadBody(t *testing.T) {
	mux := newServeMux(testEnv(t))

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeAnalyzeRejectsEmptyBatch(t *testing.T) {
	mux := newServeMux(testEnv(t))

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"buildings": []}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "buildings is required")
}

func TestServeAnalyzeAllInvalidBuildings(t *testing.T) {
	mux := newServeMux(testEnv(t))

	body := `{"buildings": [{"id": "", "name": "", "country": "", "category": "",
		"construction_year": 0, "floors": 0, "floor_area_m2": 0,
		"latitude": 0, "longitude": 0}]}`
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "no valid buildings")
}

func TestServeRankUnknownPersona(t *testing.T) {
	mux := newServeMux(testEnv(t))

	body := `{"scenarios": [], "outcomes": {}, "persona_id": "landlord"}`
	req := httptest.NewRequest(http.MethodPost, "/rank", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShutdownDrainsInFlightRequests(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "done")
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)

	type result struct {
		code int
		body string
		err  error
	}
	got := make(chan result, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/slow")
		if err != nil {
			got <- result{err: err}
			return
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		got <- result{code: resp.StatusCode, body: string(body)}
	}()

	// Let the request reach the handler before shutting down.
	time.Sleep(10 * time.Millisecond)
	shutdownGracefully(srv)

	select {
	case r := <-got:
		require.NoError(t, r.err)
		assert.Equal(t, http.StatusOK, r.code)
		assert.Equal(t, "done", r.body)
	case <-time.After(2 * time.Second):
		t.Fatal("request did not complete")
	}
}

func TestServeRank(t *testing.T) {
	mux := newServeMux(testEnv(t))

	body := `{
		"persona_id": "investor",
		"scenarios": [
			{"id": "current", "epc_class": "D", "annual_energy_needs_kwh": 10000, "comfort_index": 50},
			{"id": "renovated", "epc_class": "B", "annual_energy_needs_kwh": 7000, "comfort_index": 80}
		],
		"outcomes": {
			"renovated": {"scenario_id": "renovated", "npv": 12000, "roi": 40}
		}
	}`
	req := httptest.NewRequest(http.MethodPost, "/rank", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rank":1`)
	assert.Contains(t, rec.Body.String(), `"renovated"`)
}
