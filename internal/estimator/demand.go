package estimator

import (
	"math"

	"github.com/LeonardoBeccarini/water_allocation/internal/model/entities"
)

// minSoilMoistureFactor keeps demand at half the baseline or more, however wet the soil.
const minSoilMoistureFactor = 0.5

// GroupDemand is the requirement of one farm group before the priority multiplier.
type GroupDemand struct {
	Group    entities.FarmGroup
	CropType string // variety actually used for the lookup
	Demand   float64
}

// SoilMoistureFactor is 1 - moisture/100 floored at 0.5.
func SoilMoistureFactor(soilMoisture float64) float64 {
	return math.Max(minSoilMoistureFactor, 1-soilMoisture/100)
}

// AgriculturalDemand computes per-group demand and the district total
// (priority multiplier applied to the total only), in m³/day.
func AgriculturalDemand(f entities.FarmData, priority entities.PriorityLevel) (float64, []GroupDemand, error) {
	if f.IrrigationEfficiency == 0 {
		return 0, nil, ErrInvalidEfficiency
	}
	soil := SoilMoistureFactor(f.CurrentSoilMoisture)
	eff := f.IrrigationEfficiency / 100

	groups := make([]GroupDemand, 0, len(f.Groups))
	var total float64
	for _, g := range f.Groups {
		req, variety := entities.UnitWaterRequirement(g.Category, g.CropType)
		d := g.Area * req * soil / eff
		groups = append(groups, GroupDemand{Group: g, CropType: variety, Demand: d})
		total += d
	}
	return total * priority.Multiplier(), groups, nil
}
