package app

import (
	"github.com/LeonardoBeccarini/water_allocation/internal/estimator"
	"github.com/LeonardoBeccarini/water_allocation/internal/export"
	"github.com/LeonardoBeccarini/water_allocation/internal/model/entities"
	"github.com/LeonardoBeccarini/water_allocation/internal/optimizer"
)

// EstimateResponse carries a null result when the estimator rejected the
// input; the UI renders that as "no result".
type EstimateResponse struct {
	Result   *estimator.AllocationResult `json:"result"`
	Error    string                      `json:"error,omitempty"`
	Warnings []string                    `json:"warnings,omitempty"`
}

type CropCatalog map[entities.CropCategory][]entities.Variety

// OptimizeResponse adds the run id of the published decision.
type OptimizeResponse struct {
	optimizer.Result
	RunID string `json:"run_id"`
}

// ExportRequest is the optimize payload and the response it produced, as the
// UI holds them. Estimate is optional.
type ExportRequest struct {
	Input    optimizer.WireRequest `json:"input"`
	Results  *optimizer.Result     `json:"results"`
	Estimate *export.Estimate      `json:"estimate,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}
