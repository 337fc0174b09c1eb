package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/water_allocation/internal/estimator"
	"github.com/LeonardoBeccarini/water_allocation/internal/export"
	"github.com/LeonardoBeccarini/water_allocation/internal/model/entities"
	"github.com/LeonardoBeccarini/water_allocation/internal/optimizer"
	"github.com/LeonardoBeccarini/water_allocation/internal/telemetry"
)

const maxBody = 4 << 20

// POST /api/estimate
func (g *Gateway) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var in estimator.Input
	if err := decodeBody(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	var warnings []string
	if err := in.Validate(); err != nil {
		warnings = strings.Split(err.Error(), "\n")
	}
	res, err := estimator.Estimate(in)
	g.cfg.Metrics.ObserveEstimate(err == nil)
	if err != nil {
		g.log.Info().Err(err).Msg("estimate: no result")
		writeJSON(w, http.StatusOK, EstimateResponse{Error: err.Error(), Warnings: warnings})
		return
	}
	writeJSON(w, http.StatusOK, EstimateResponse{Result: &res, Warnings: warnings})
}

// GET /api/crops
func (g *Gateway) handleCrops(w http.ResponseWriter, _ *http.Request) {
	out := CropCatalog{}
	for _, c := range entities.Categories() {
		out[c] = entities.Varieties(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/optimize, same body as the optimizer service.
func (g *Gateway) handleOptimize(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	req, err := optimizer.DecodeRequest(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.HTTPTimeout)
	defer cancel()

	res, err := g.cfg.Optimizer.Optimize(ctx, req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, errorBody{Error: err.Error()})
		return
	}
	if res.Provenance == "" {
		res.Provenance = optimizer.ProvenanceOptimized
	}

	runID := uuid.NewString()
	g.publishDecision(runID, req, res)
	writeJSON(w, http.StatusOK, OptimizeResponse{Result: res, RunID: runID})
}

// POST /api/export
func (g *Gateway) handleExport(w http.ResponseWriter, r *http.Request) {
	var in ExportRequest
	if err := decodeBody(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	doc, err := export.New(in.Input, in.Results, in.Estimate, g.cfg.Now())
	if errors.Is(err, export.ErrNoResults) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName()))
	if err := doc.Write(w); err != nil {
		g.log.Error().Err(err).Msg("export write")
	}
}

// GET /api/telemetry/latest
func (g *Gateway) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	p, err := g.cfg.Telemetry.Latest(r.Context())
	if err != nil {
		g.log.Warn().Err(err).Msg("telemetry prefill")
		w.Header().Set("X-Error", "influx-query-error")
		p = telemetry.Prefill{Source: telemetry.SourceNone}
	}
	w.Header().Set("X-Data-Source", p.Source)
	writeJSON(w, http.StatusOK, p)
}

func decodeBody(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid data format: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
