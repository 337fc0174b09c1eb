// Package estimator is the real-time water balance: supply, demand, a
// deterministic allocation and the derived deficit and efficiency figures.
// Every function is pure; identical inputs give identical results.
package estimator

import (
	"errors"
	"fmt"

	"github.com/LeonardoBeccarini/water_allocation/internal/model/entities"
)

// Input bundles everything the estimator reads. It is passed by value.
type Input struct {
	Reservoir entities.ReservoirState   `json:"reservoir"`
	Farms     entities.FarmData         `json:"farms"`
	Policy    entities.AllocationPolicy `json:"policy"`
}

// Validate checks the entity invariants. Estimate does not call it: it
// tolerates out-of-range values and only fails on the two divisions by zero.
func (in Input) Validate() error {
	return errors.Join(in.Reservoir.Validate(), in.Farms.Validate(), in.Policy.Validate())
}

// AllocationResult is the estimator output, all volumes in m³/day.
type AllocationResult struct {
	TotalWaterAvailable           float64              `json:"total_water_available"`
	AgriculturalWaterDemand       float64              `json:"agricultural_water_demand"`
	RecommendedAllocation         float64              `json:"recommended_allocation"`
	DistributionPerCrop           map[string]CropShare `json:"distribution_per_crop"`
	WaterDeficitSurplus           float64              `json:"water_deficit_surplus"`
	WaterDeficitSurplusPercentage float64              `json:"water_deficit_surplus_percentage"`
	EnvironmentalFlow             float64              `json:"environmental_flow"`
	AllocationPerFarm             float64              `json:"allocation_per_farm"`
	EfficiencyMetrics             EfficiencyMetrics    `json:"efficiency_metrics"`
}

// Deficit reports whether recommended use plus the environmental reserve
// exceeds what is available.
func (r AllocationResult) Deficit() bool {
	return r.WaterDeficitSurplus < 0
}

// Estimate runs supply, demand, allocation and balance in order.
func Estimate(in Input) (AllocationResult, error) {
	available, err := TotalWaterAvailable(in.Reservoir, in.Policy.CalculationPeriod, in.Farms.TotalAgriculturalArea)
	if err != nil {
		return AllocationResult{}, fmt.Errorf("supply: %w", err)
	}
	demand, _, err := AgriculturalDemand(in.Farms, in.Policy.PriorityLevel)
	if err != nil {
		return AllocationResult{}, fmt.Errorf("demand: %w", err)
	}
	envFlow := in.Policy.MinimumEnvironmentalFlow
	alloc, err := allocate(in.Policy.Method, in.Farms, demand, available, envFlow)
	if err != nil {
		return AllocationResult{}, fmt.Errorf("allocation: %w", err)
	}
	bal := computeBalance(in.Reservoir, available, alloc.recommended, envFlow)

	var perFarm float64
	if in.Farms.NumberOfFarms > 0 {
		perFarm = alloc.recommended / float64(in.Farms.NumberOfFarms)
	}

	return AllocationResult{
		TotalWaterAvailable:           available,
		AgriculturalWaterDemand:       demand,
		RecommendedAllocation:         alloc.recommended,
		DistributionPerCrop:           alloc.perCrop,
		WaterDeficitSurplus:           bal.deficitSurplus,
		WaterDeficitSurplusPercentage: bal.deficitSurplusPct,
		EnvironmentalFlow:             envFlow,
		AllocationPerFarm:             perFarm,
		EfficiencyMetrics:             bal.metrics,
	}, nil
}

// TryEstimate is Estimate for callers that render "no result" as a normal
// state: any error yields nil.
func TryEstimate(in Input) *AllocationResult {
	res, err := Estimate(in)
	if err != nil {
		return nil
	}
	return &res
}
