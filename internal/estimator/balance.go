package estimator

import "github.com/LeonardoBeccarini/water_allocation/internal/model/entities"

// EfficiencyMetrics are percentages.
type EfficiencyMetrics struct {
	StorageUtilization   float64 `json:"storage_utilization"`
	AllocationEfficiency float64 `json:"allocation_efficiency"`
}

type balance struct {
	deficitSurplus    float64
	deficitSurplusPct float64
	metrics           EfficiencyMetrics
}

// computeBalance derives deficit/surplus and the efficiency ratios.
// Ratios with a zero denominator read as 0.
func computeBalance(r entities.ReservoirState, available, recommended, envFlow float64) balance {
	b := balance{deficitSurplus: available - recommended - envFlow}
	b.deficitSurplusPct = percent(b.deficitSurplus, available)
	b.metrics = EfficiencyMetrics{
		StorageUtilization:   percent(r.CurrentStorageVolume, r.TotalStorageCapacity),
		AllocationEfficiency: percent(recommended, available),
	}
	return b
}

func percent(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den * 100
}
