package entities

import "fmt"

// Farm is the optimizer-facing unit.
type Farm struct {
	FarmID        int     `json:"farm_id"`
	Size          float64 `json:"farm_size"`      // hectares
	CropWaterReq  float64 `json:"crop_water_req"` // m³ per hectare
	CanalCapacity float64 `json:"canal_capacity"` // m³/day, hard upper bound
}

// Demand is the water the farm needs to avoid any shortage.
func (f Farm) Demand() float64 {
	return f.Size * f.CropWaterReq
}

func (f Farm) Validate() error {
	if f.Size < 0 || f.CropWaterReq < 0 {
		return fmt.Errorf("farm %d: size and crop water requirement must be non-negative", f.FarmID)
	}
	if f.CanalCapacity < 0 {
		return fmt.Errorf("farm %d: canal capacity must be non-negative", f.FarmID)
	}
	return nil
}
