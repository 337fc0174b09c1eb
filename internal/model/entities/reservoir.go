package entities

import "fmt"

// ReservoirState is the storage snapshot the supply model works from.
type ReservoirState struct {
	TotalStorageCapacity float64 `json:"total_storage_capacity"` // MCM
	CurrentStorageVolume float64 `json:"current_storage_volume"` // MCM
	DailyInflowRate      float64 `json:"daily_inflow_rate"`      // m³/day
	RainfallInWatershed  float64 `json:"rainfall_in_watershed"`  // mm per period
}

// Validate checks 0 <= current <= capacity and non-negative rates.
func (r ReservoirState) Validate() error {
	if r.TotalStorageCapacity < 0 || r.CurrentStorageVolume < 0 {
		return fmt.Errorf("storage volumes must be non-negative")
	}
	if r.CurrentStorageVolume > r.TotalStorageCapacity {
		return fmt.Errorf("current storage %.2f exceeds capacity %.2f", r.CurrentStorageVolume, r.TotalStorageCapacity)
	}
	if r.DailyInflowRate < 0 || r.RainfallInWatershed < 0 {
		return fmt.Errorf("inflow and rainfall must be non-negative")
	}
	return nil
}
