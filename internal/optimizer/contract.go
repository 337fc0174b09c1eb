// Package optimizer defines the multi-objective optimizer contract and its
// two implementations: the remote search service and a deterministic
// fallback used when that service cannot be reached.
package optimizer

import (
	"context"
	"fmt"

	"github.com/LeonardoBeccarini/water_allocation/internal/model/entities"
)

// Optimizer turns a district request into a per-farm allocation.
type Optimizer interface {
	Optimize(ctx context.Context, req Request) (Result, error)
}

type Provenance string

const (
	ProvenanceOptimized Provenance = "optimized"
	ProvenanceFallback  Provenance = "fallback"
)

// Request is the optimizer input. Farms keep their order in the result.
type Request struct {
	TotalWaterSupply float64                  `json:"total_water_supply"`
	Farms            []entities.Farm          `json:"farms"`
	Config           entities.OptimizerConfig `json:"config"`
}

func (r Request) Validate() error {
	if len(r.Farms) == 0 {
		return ErrNoFarms
	}
	if r.TotalWaterSupply < 0 {
		return fmt.Errorf("total water supply must be non-negative")
	}
	for _, f := range r.Farms {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Demands returns cropWaterReq·size per farm.
func (r Request) Demands() []float64 {
	out := make([]float64, len(r.Farms))
	for i, f := range r.Farms {
		out[i] = f.Demand()
	}
	return out
}

type FarmAllocation struct {
	FarmID         int     `json:"farm_id"`
	FarmSize       float64 `json:"farm_size"`
	WaterAllocated float64 `json:"water_allocated"`
	Shortage       float64 `json:"shortage"`
}

type Metrics struct {
	TotalShortage   float64 `json:"total_shortage"`
	FairnessIndex   float64 `json:"fairness_index"`
	WaterEfficiency float64 `json:"water_efficiency"`
}

// Result is the optimizer output. Provenance and Warning are set by the
// caller side, never by the remote service.
type Result struct {
	Allocations []FarmAllocation `json:"allocations"`
	Metrics     Metrics          `json:"metrics"`
	Provenance  Provenance       `json:"provenance,omitempty"`
	Warning     string           `json:"warning,omitempty"`
}

// Degraded is true for anything that did not come out of a real search.
func (r Result) Degraded() bool {
	return r.Provenance != ProvenanceOptimized
}

// TotalAllocated sums water handed out to every farm.
func (r Result) TotalAllocated() float64 {
	var sum float64
	for _, a := range r.Allocations {
		sum += a.WaterAllocated
	}
	return sum
}
