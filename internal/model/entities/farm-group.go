package entities

import "fmt"

// FarmGroup is the area planted with one crop variety across the district.
type FarmGroup struct {
	Category CropCategory `json:"category"`  // e.g. "rice"
	CropType string       `json:"crop_type"` // variety within the category, e.g. "Inbred"
	Area     float64      `json:"area"`      // hectares
}

// FarmData holds the district-wide agronomic inputs of the estimator.
type FarmData struct {
	NumberOfFarms         int         `json:"number_of_farms"`
	TotalAgriculturalArea float64     `json:"total_agricultural_area"` // hectares
	CurrentSoilMoisture   float64     `json:"current_soil_moisture"`   // %
	IrrigationEfficiency  float64     `json:"irrigation_efficiency"`   // %
	Groups                []FarmGroup `json:"groups"`
}

// TotalCropArea sums the area of every group.
func (f FarmData) TotalCropArea() float64 {
	var sum float64
	for _, g := range f.Groups {
		sum += g.Area
	}
	return sum
}

// Validate mirrors the form rules: ranges on percentages and Σ areas <= total area.
func (f FarmData) Validate() error {
	if f.NumberOfFarms < 0 {
		return fmt.Errorf("number of farms must be non-negative")
	}
	if f.TotalAgriculturalArea < 0 {
		return fmt.Errorf("total agricultural area must be non-negative")
	}
	if f.CurrentSoilMoisture < 0 || f.CurrentSoilMoisture > 100 {
		return fmt.Errorf("soil moisture %.1f outside 0-100", f.CurrentSoilMoisture)
	}
	if f.IrrigationEfficiency < 0 || f.IrrigationEfficiency > 100 {
		return fmt.Errorf("irrigation efficiency %.1f outside 0-100", f.IrrigationEfficiency)
	}
	for _, g := range f.Groups {
		if g.Area < 0 {
			return fmt.Errorf("%s area must be non-negative", g.Category)
		}
	}
	if total := f.TotalCropArea(); total > f.TotalAgriculturalArea {
		return fmt.Errorf("crop area %.1f exceeds total agricultural area %.1f", total, f.TotalAgriculturalArea)
	}
	return nil
}
