package messages

import "time"

// FarmAllocation is one line of a published decision.
type FarmAllocation struct {
	FarmID         int     `json:"farm_id"`
	WaterAllocated float64 `json:"water_allocated"`
	Shortage       float64 `json:"shortage"`
}

// AllocationDecisionEvent is published by the gateway after every optimize call,
// optimized or fallback, so downstream consumers can act on it.
type AllocationDecisionEvent struct {
	RunID            string           `json:"run_id"`
	Provenance       string           `json:"provenance"` // "optimized" | "fallback"
	TotalWaterSupply float64          `json:"total_water_supply"`
	Allocations      []FarmAllocation `json:"allocations"`
	TotalShortage    float64          `json:"total_shortage"`
	FairnessIndex    float64          `json:"fairness_index"`
	WaterEfficiency  float64          `json:"water_efficiency"`
	Timestamp        time.Time        `json:"timestamp"`
}
