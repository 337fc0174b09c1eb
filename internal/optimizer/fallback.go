package optimizer

import "context"

// Fixed illustrative metrics of the degraded path; they are not computed.
const (
	fallbackTotalShortage   = 5000
	fallbackFairnessIndex   = 0.85
	fallbackWaterEfficiency = 0.78
)

const FallbackWarning = "optimizer unavailable: uniform non-optimized allocation shown"

// DeterministicFallbackOptimizer splits the supply evenly across farms.
type DeterministicFallbackOptimizer struct{}

var _ Optimizer = DeterministicFallbackOptimizer{}

func (DeterministicFallbackOptimizer) Optimize(_ context.Context, req Request) (Result, error) {
	if len(req.Farms) == 0 {
		return Result{}, ErrNoFarms
	}
	return Synthesize(req, FallbackWarning), nil
}

// Synthesize builds the uniform result. Shortage is demand minus the share
// and goes negative for farms that receive more than they need.
func Synthesize(req Request, warning string) Result {
	share := req.TotalWaterSupply / float64(len(req.Farms))
	res := Result{
		Allocations: make([]FarmAllocation, len(req.Farms)),
		Metrics: Metrics{
			TotalShortage:   fallbackTotalShortage,
			FairnessIndex:   fallbackFairnessIndex,
			WaterEfficiency: fallbackWaterEfficiency,
		},
		Provenance: ProvenanceFallback,
		Warning:    warning,
	}
	for i, f := range req.Farms {
		res.Allocations[i] = FarmAllocation{
			FarmID:         f.FarmID,
			FarmSize:       f.Size,
			WaterAllocated: share,
			Shortage:       f.Demand() - share,
		}
	}
	return res
}
