package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/water_allocation/internal/nsga2"
	"github.com/LeonardoBeccarini/water_allocation/internal/optimizer"
	"github.com/LeonardoBeccarini/water_allocation/pkg/metrics"
)

const smallRun = `"optimizer_config":{"population_size":20,"max_generations":10,"crossover_rate":0.8,"mutation_rate":0.1,"equity_weight":35,"sustainability_weight":35,"demand_fulfillment_weight":30}`

func newTestServer(engine optimizer.Optimizer) *Server {
	return New(Config{Engine: engine, Metrics: metrics.New("test"), Log: zerolog.Nop()})
}

func post(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/optimize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestOptimizeOK(t *testing.T) {
	s := newTestServer(nsga2.New(nsga2.WithSeed(3)))
	rec := post(t, s, `{"total_water_supply":9000,"num_farms":3,"farm_sizes":[10,20,5],"crop_water_reqs":[250,200,300],"canal_capacities":[4000,5000,2000],`+smallRun+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res optimizer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Allocations, 3)
	assert.Equal(t, 1, res.Allocations[0].FarmID)
	assert.Equal(t, 5.0, res.Allocations[2].FarmSize)
	assert.LessOrEqual(t, res.TotalAllocated(), 9000.0)
	assert.NotContains(t, rec.Body.String(), "provenance")
}

func TestOptimizeBadRequests(t *testing.T) {
	s := newTestServer(nsga2.New(nsga2.WithSeed(3)))
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing field", `{"total_water_supply":1,"num_farms":1,"farm_sizes":[1],"crop_water_reqs":[1]}`, "missing required field: canal_capacities"},
		{"length mismatch", `{"total_water_supply":1,"num_farms":2,"farm_sizes":[1],"crop_water_reqs":[1],"canal_capacities":[1]}`, "array lengths"},
		{"no farms", `{"total_water_supply":1,"num_farms":0,"farm_sizes":[],"crop_water_reqs":[],"canal_capacities":[]}`, "num_farms"},
		{"empty", `null`, "no data"},
		{"bad config", `{"total_water_supply":1,"num_farms":1,"farm_sizes":[1],"crop_water_reqs":[1],"canal_capacities":[1],"optimizer_config":{"population_size":2}}`, "population size"},
		{"negative canal", `{"total_water_supply":1,"num_farms":1,"farm_sizes":[1],"crop_water_reqs":[1],"canal_capacities":[-1]}`, "canal capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, s, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

type failingEngine struct{}

func (failingEngine) Optimize(context.Context, optimizer.Request) (optimizer.Result, error) {
	return optimizer.Result{}, errors.New("diverged")
}

func TestOptimizeEngineFailure(t *testing.T) {
	rec := post(t, newTestServer(failingEngine{}), `{"total_water_supply":1,"num_farms":1,"farm_sizes":[1],"crop_water_reqs":[1],"canal_capacities":[1]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "optimization failed: diverged")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(failingEngine{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	post(t, s, `{"total_water_supply":1,"num_farms":1,"farm_sizes":[1],"crop_water_reqs":[1],"canal_capacities":[1]}`)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `test_search_runs_total{outcome="error"} 1`)
}

func TestRemoteOptimizerAgainstServer(t *testing.T) {
	srv := httptest.NewServer(newTestServer(nsga2.New(nsga2.WithSeed(11))).Handler())
	defer srv.Close()

	remote := optimizer.NewRemoteOptimizer(optimizer.RemoteConfig{BaseURL: srv.URL}, zerolog.Nop())
	resolver := optimizer.NewResolver(remote, zerolog.Nop(), optimizer.WithProber(optimizer.NewHTTPProber(srv.URL, 0), 0))

	req, err := optimizer.DecodeRequest([]byte(`{"total_water_supply":5000,"num_farms":2,"farm_sizes":[3,4],"crop_water_reqs":[500,600],"canal_capacities":[3000,3000],` + smallRun + `}`))
	require.NoError(t, err)

	res, err := resolver.Optimize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, optimizer.ProvenanceOptimized, res.Provenance)
	assert.Len(t, res.Allocations, 2)
}
