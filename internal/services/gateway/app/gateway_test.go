package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/water_allocation/internal/model"
	"github.com/LeonardoBeccarini/water_allocation/internal/optimizer"
	"github.com/LeonardoBeccarini/water_allocation/pkg/dedup"
	"github.com/LeonardoBeccarini/water_allocation/pkg/metrics"
)

const estimateBody = `{
  "reservoir": {"total_storage_capacity": 3000, "current_storage_volume": 1800, "daily_inflow_rate": 50000, "rainfall_in_watershed": 15},
  "farms": {"number_of_farms": 150, "total_agricultural_area": 2500, "current_soil_moisture": 65, "irrigation_efficiency": 75,
            "groups": [{"category": "rice", "crop_type": "Inbred", "area": 2500}]},
  "policy": {"priority_level": "Medium", "method": "Proportional", "minimum_environmental_flow": 10000, "calculation_period": 30}
}`

const threeFarms = `{"total_water_supply":9000,"num_farms":3,"farm_sizes":[10,20,5],"crop_water_reqs":[250,200,300],"canal_capacities":[4000,5000,2000]}`

type published struct {
	topic string
	evt   model.AllocationDecisionEvent
}

type recorder struct {
	mu        sync.Mutex
	connected bool
	err       error
	sent      []published
}

func (r *recorder) PublishJSON(topic string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, published{topic: topic, evt: v.(model.AllocationDecisionEvent)})
	return nil
}

func (r *recorder) Connected() bool { return r.connected }

var fixedNow = time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)

// counterValue reads one labelled counter from the gathered registry.
func counterValue(t *testing.T, m *metrics.Metrics, name, label string) float64 {
	t.Helper()
	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, mt := range mf.GetMetric() {
			for _, lp := range mt.GetLabel() {
				if lp.GetValue() == label {
					return mt.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func newGateway(t *testing.T, mutate func(*Config)) (*Gateway, *metrics.Metrics) {
	t.Helper()
	m := metrics.New("planner")
	cfg := Config{
		Metrics: m,
		Log:     zerolog.Nop(),
		Now:     func() time.Time { return fixedNow },
	}
	cfg.Optimizer = optimizer.NewResolver(nil, zerolog.Nop(), optimizer.WithObserver(m))
	if mutate != nil {
		mutate(&cfg)
	}
	return NewGateway(cfg), m
}

func do(g *Gateway, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	g.Handler().ServeHTTP(rec, req)
	return rec
}

func TestEstimate(t *testing.T) {
	g, m := newGateway(t, nil)

	rec := do(g, http.MethodPost, "/api/estimate", estimateBody)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp EstimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.InDelta(t, 60_062_500.0, resp.Result.TotalWaterAvailable, 1e-6)
	assert.Contains(t, resp.Result.DistributionPerCrop, "rice")
	assert.Empty(t, resp.Error)

	assert.Equal(t, 1.0, counterValue(t, m, "planner_estimates_total", "ok"))
}

func TestEstimateNoResult(t *testing.T) {
	g, _ := newGateway(t, nil)

	body := strings.Replace(estimateBody, `"calculation_period": 30`, `"calculation_period": 0`, 1)
	rec := do(g, http.MethodPost, "/api/estimate", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "null", string(raw["result"]))
	assert.Contains(t, string(raw["error"]), "period")

	rec = do(g, http.MethodPost, "/api/estimate", `{"reservoir":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptimizeFallbackPublishesOnce(t *testing.T) {
	pub := &recorder{connected: true}
	g, m := newGateway(t, func(c *Config) {
		c.Publisher = pub
		c.Deduper = dedup.New(time.Minute, 100)
	})

	rec := do(g, http.MethodPost, "/api/optimize", threeFarms)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp OptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, optimizer.ProvenanceFallback, resp.Provenance)
	assert.NotEmpty(t, resp.Warning)
	assert.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Allocations, 3)
	for _, a := range resp.Allocations {
		assert.Equal(t, 3000.0, a.WaterAllocated)
	}

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "event/allocationDecision/fallback", pub.sent[0].topic)
	assert.Equal(t, resp.RunID, pub.sent[0].evt.RunID)
	assert.Equal(t, fixedNow, pub.sent[0].evt.Timestamp)
	assert.Equal(t, 9000.0, pub.sent[0].evt.TotalWaterSupply)

	rec = do(g, http.MethodPost, "/api/optimize", threeFarms)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.sent, 1, "identical decision is not re-published")

	assert.Equal(t, 2.0, counterValue(t, m, "planner_optimize_requests_total", "fallback"))
	assert.Equal(t, 1.0, counterValue(t, m, "planner_decision_events_total", "duplicate"))
}

func TestOptimizePublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recorder{err: errors.New("broker down")}
	d := dedup.New(time.Minute, 100)
	g, _ := newGateway(t, func(c *Config) {
		c.Publisher = pub
		c.Deduper = d
	})

	rec := do(g, http.MethodPost, "/api/optimize", threeFarms)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, d.Len(), "failed publish is forgotten so it can be retried")
}

func TestOptimizeRemote(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/health":
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		case "/api/optimize":
			_, _ = w.Write([]byte(`{"allocations":[{"farm_id":1,"farm_size":10,"water_allocated":2500},{"farm_id":2,"farm_size":20,"water_allocated":4000},{"farm_id":3,"farm_size":5,"water_allocated":1500}],
				"metrics":{"total_shortage":0,"fairness_index":0.97,"water_efficiency":1}}`))
		}
	}))
	defer upstream.Close()

	pub := &recorder{connected: true}
	g, _ := newGateway(t, func(c *Config) {
		remote := optimizer.NewRemoteOptimizer(optimizer.RemoteConfig{BaseURL: upstream.URL}, zerolog.Nop())
		prober := optimizer.NewHTTPProber(upstream.URL, time.Second)
		c.Optimizer = optimizer.NewResolver(remote, zerolog.Nop(), optimizer.WithProber(prober, time.Second))
		c.Prober = prober
		c.Breaker = remote
		c.Publisher = pub
	})

	rec := do(g, http.MethodPost, "/api/optimize", threeFarms)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp OptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, optimizer.ProvenanceOptimized, resp.Provenance)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, 0.97, resp.Metrics.FairnessIndex)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "event/allocationDecision/optimized", pub.sent[0].topic)

	rec = do(g, http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"status":"ok","optimizer_reachable":true,"optimizer_breaker":"closed","mqtt_connected":true}`, rec.Body.String())
}

func TestOptimizeBadRequests(t *testing.T) {
	g, _ := newGateway(t, nil)

	rec := do(g, http.MethodPost, "/api/optimize", `{"total_water_supply":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing required field")

	rec = do(g, http.MethodPost, "/api/optimize", `{"total_water_supply":1,"num_farms":0,"farm_sizes":[],"crop_water_reqs":[],"canal_capacities":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), optimizer.ErrNoFarms.Error())
}

func TestExport(t *testing.T) {
	g, _ := newGateway(t, nil)

	opt := do(g, http.MethodPost, "/api/optimize", threeFarms)
	require.Equal(t, http.StatusOK, opt.Code)

	rec := do(g, http.MethodPost, "/api/export", `{"input":`+threeFarms+`,"results":`+opt.Body.String()+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="water-allocation-results-2026-06-15.json"`, rec.Header().Get("Content-Disposition"))

	var doc struct {
		Input     json.RawMessage  `json:"input"`
		Results   optimizer.Result `json:"results"`
		Timestamp string           `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.JSONEq(t, threeFarms, string(doc.Input))
	assert.Equal(t, "2026-06-15T09:30:00Z", doc.Timestamp)

	var want optimizer.Result
	require.NoError(t, json.Unmarshal(opt.Body.Bytes(), &want))
	assert.Equal(t, want, doc.Results)
	require.Len(t, doc.Results.Allocations, 3)
	assert.InDelta(t, 3000, doc.Results.Allocations[0].WaterAllocated, 1e-9)
}

func TestOptimizePartialConfigFallsBack(t *testing.T) {
	g, _ := newGateway(t, nil)
	body := strings.TrimSuffix(threeFarms, "}") + `,"optimizer_config":{"population_size":50}}`

	rec := do(g, http.MethodPost, "/api/optimize", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp OptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, optimizer.ProvenanceFallback, resp.Provenance)
	assert.Len(t, resp.Allocations, 3)
}

func TestExportWithoutResults(t *testing.T) {
	g, _ := newGateway(t, nil)
	for _, body := range []string{
		`{"input":` + threeFarms + `}`,
		`{"input":` + threeFarms + `,"results":{"metrics":{"total_shortage":1}}}`,
	} {
		rec := do(g, http.MethodPost, "/api/export", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
}

func TestTelemetryNotConfigured(t *testing.T) {
	g, _ := newGateway(t, nil)
	rec := do(g, http.MethodGet, "/api/telemetry/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "none", rec.Header().Get("X-Data-Source"))
	assert.JSONEq(t, `{"source":"none","soil_sensors":0}`, rec.Body.String())
}

func TestHealthAndReady(t *testing.T) {
	pub := &recorder{connected: false}
	g, _ := newGateway(t, func(c *Config) { c.Publisher = pub })

	rec := do(g, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)

	rec = do(g, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	pub.connected = true
	rec = do(g, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ready":true}`, rec.Body.String())
}

type countingProber struct{ calls int }

func (p *countingProber) Probe(context.Context) error {
	p.calls++
	return optimizer.ErrServiceUnavailable
}

func TestReadyDoesNotProbeOptimizer(t *testing.T) {
	prober := &countingProber{}
	g, _ := newGateway(t, func(c *Config) { c.Prober = prober })

	rec := do(g, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, prober.calls)

	rec = do(g, http.MethodGet, "/healthz", "")
	assert.Contains(t, rec.Body.String(), `"optimizer_reachable":false`)
	assert.Equal(t, 1, prober.calls)
}

func TestEstimateWarnings(t *testing.T) {
	g, _ := newGateway(t, nil)

	body := strings.Replace(estimateBody, `"current_storage_volume": 1800`, `"current_storage_volume": 4000`, 1)
	rec := do(g, http.MethodPost, "/api/estimate", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp EstimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result, "out-of-range storage still estimates")
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "exceeds capacity")
}

func TestCrops(t *testing.T) {
	g, _ := newGateway(t, nil)
	rec := do(g, http.MethodGet, "/api/crops", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cat map[string][]struct {
		Name        string  `json:"name"`
		Requirement float64 `json:"requirement"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cat))
	require.Len(t, cat["rice"], 2)
	assert.Equal(t, "Inbred", cat["rice"][0].Name)
	assert.Equal(t, 8.5, cat["rice"][0].Requirement)
	assert.Contains(t, cat, "corn")
}
