package app

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

type healthStatus struct {
	Status             string `json:"status"` // ok | degraded
	OptimizerReachable bool   `json:"optimizer_reachable"`
	Breaker            string `json:"optimizer_breaker,omitempty"`
	MQTTConnected      *bool  `json:"mqtt_connected,omitempty"`
	InfluxOK           *bool  `json:"influx_ok,omitempty"`
}

// check reports unconfigured dependencies as absent rather than failed.
func (g *Gateway) check(ctx context.Context) healthStatus {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	st := healthStatus{}
	if g.cfg.Prober != nil {
		st.OptimizerReachable = g.cfg.Prober.Probe(ctx) == nil
	}
	if g.cfg.Breaker != nil {
		st.Breaker = g.cfg.Breaker.BreakerState().String()
	}
	g.checkDeps(ctx, &st)

	st.Status = "ok"
	if !st.OptimizerReachable || g.depsDown(st) || st.Breaker == gobreaker.StateOpen.String() {
		st.Status = "degraded"
	}
	return st
}

// checkDeps fills the broker and database fields only.
func (g *Gateway) checkDeps(ctx context.Context, st *healthStatus) {
	if g.cfg.Publisher != nil {
		ok := g.cfg.Publisher.Connected()
		st.MQTTConnected = &ok
	}
	if g.cfg.Telemetry != nil {
		ok := g.cfg.Telemetry.Ping(ctx)
		st.InfluxOK = &ok
	}
}

func (g *Gateway) depsDown(st healthStatus) bool {
	return (st.MQTTConnected != nil && !*st.MQTTConnected) || (st.InfluxOK != nil && !*st.InfluxOK)
}

// GET /healthz: always 200, the fallback keeps the planner usable.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.check(r.Context()))
}

// GET /readyz: 503 only when a configured broker or database is down.
// The optimizer is not probed here.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	var st healthStatus
	g.checkDeps(ctx, &st)
	ready := !g.depsDown(st)
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, struct {
		Ready bool `json:"ready"`
	}{ready})
}
