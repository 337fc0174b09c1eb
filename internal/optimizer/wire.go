package optimizer

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/LeonardoBeccarini/water_allocation/internal/model/entities"
)

// WireRequest is the JSON body of POST /api/optimize. OptimizerConfig is
// optional so clients that only send the farm arrays keep working.
type WireRequest struct {
	TotalWaterSupply float64                   `json:"total_water_supply"`
	NumFarms         int                       `json:"num_farms"`
	FarmSizes        []float64                 `json:"farm_sizes"`
	CropWaterReqs    []float64                 `json:"crop_water_reqs"`
	CanalCapacities  []float64                 `json:"canal_capacities"`
	OptimizerConfig  *entities.OptimizerConfig `json:"optimizer_config,omitempty"`
}

// RequiredFields must be present in every wire request.
var RequiredFields = []string{"total_water_supply", "num_farms", "farm_sizes", "crop_water_reqs", "canal_capacities"}

// EncodeRequest flattens a Request into the wire arrays.
func EncodeRequest(r Request) WireRequest {
	n := len(r.Farms)
	w := WireRequest{
		TotalWaterSupply: r.TotalWaterSupply,
		NumFarms:         n,
		FarmSizes:        make([]float64, n),
		CropWaterReqs:    make([]float64, n),
		CanalCapacities:  make([]float64, n),
	}
	for i, f := range r.Farms {
		w.FarmSizes[i] = f.Size
		w.CropWaterReqs[i] = f.CropWaterReq
		w.CanalCapacities[i] = f.CanalCapacity
	}
	cfg := r.Config
	w.OptimizerConfig = &cfg
	return w
}

// DecodeRequest parses and checks a wire body. Farm ids are 1-based
// positions. A missing or partial optimizer_config takes the defaults.
func DecodeRequest(body []byte) (Request, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Request{}, fmt.Errorf("invalid data format: %w", err)
	}
	if raw == nil {
		return Request{}, fmt.Errorf("no data provided")
	}
	for _, f := range RequiredFields {
		if _, ok := raw[f]; !ok {
			return Request{}, fmt.Errorf("missing required field: %s", f)
		}
	}
	// keys missing from optimizer_config keep their defaults
	def := entities.DefaultOptimizerConfig()
	w := WireRequest{OptimizerConfig: &def}
	if err := json.Unmarshal(body, &w); err != nil {
		return Request{}, fmt.Errorf("invalid data format: %w", err)
	}
	n := w.NumFarms
	if len(w.FarmSizes) != n || len(w.CropWaterReqs) != n || len(w.CanalCapacities) != n {
		return Request{}, fmt.Errorf("array lengths must match num_farms")
	}

	req := Request{TotalWaterSupply: w.TotalWaterSupply, Farms: make([]entities.Farm, n)}
	for i := 0; i < n; i++ {
		req.Farms[i] = entities.Farm{
			FarmID:        i + 1,
			Size:          w.FarmSizes[i],
			CropWaterReq:  w.CropWaterReqs[i],
			CanalCapacity: w.CanalCapacities[i],
		}
	}
	req.Config = entities.DefaultOptimizerConfig()
	if w.OptimizerConfig != nil {
		req.Config = *w.OptimizerConfig
	}
	return req, nil
}

// checkResult verifies a decoded reply lines up with the request it answers.
func checkResult(req Request, res Result) error {
	if len(res.Allocations) != len(req.Farms) {
		return fmt.Errorf("%w: %d allocations for %d farms", ErrMalformedResponse, len(res.Allocations), len(req.Farms))
	}
	for _, a := range res.Allocations {
		if math.IsNaN(a.WaterAllocated) || math.IsInf(a.WaterAllocated, 0) || a.WaterAllocated < 0 {
			return fmt.Errorf("%w: farm %d allocation %v", ErrMalformedResponse, a.FarmID, a.WaterAllocated)
		}
	}
	return nil
}
