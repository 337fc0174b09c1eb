package estimator

import (
	"math"

	"github.com/LeonardoBeccarini/water_allocation/internal/model/entities"
)

// CropShare is the slice of the recommended allocation given to one crop.
type CropShare struct {
	Allocation float64 `json:"allocation"`
	Area       float64 `json:"area"`
	Percentage float64 `json:"percentage"`
}

type allocation struct {
	recommended float64
	perCrop     map[string]CropShare
}

// allocate distributes capped demand across groups. The cap may be negative
// when the environmental flow exceeds supply; that is surfaced, not clamped.
func allocate(method entities.AllocationMethod, f entities.FarmData, demand, available, envFlow float64) (allocation, error) {
	capped := math.Min(demand, available-envFlow)
	switch method {
	case entities.MethodEqualPriority:
		return allocateEqualPriority(f, capped)
	default:
		return allocateProportional(f, capped), nil
	}
}

func allocateProportional(f entities.FarmData, capped float64) allocation {
	out := allocation{recommended: capped, perCrop: make(map[string]CropShare, len(f.Groups))}
	totalCropArea := f.TotalCropArea()
	for _, g := range f.Groups {
		share := CropShare{Area: g.Area}
		if totalCropArea > 0 {
			ratio := g.Area / totalCropArea
			share.Allocation = capped * ratio
			share.Percentage = ratio * 100
		}
		addShare(out.perCrop, g, share)
	}
	return out
}

// allocateEqualPriority gives each farm the same volume; a crop receives one
// share per farm-sized block of its area, rounded up. The ceil can hand out
// more than the capped demand when groups share farms.
func allocateEqualPriority(f entities.FarmData, capped float64) (allocation, error) {
	if f.NumberOfFarms <= 0 {
		return allocation{}, ErrInvalidFarmCount
	}
	n := float64(f.NumberOfFarms)
	perFarm := capped / n
	out := allocation{recommended: perFarm * n, perCrop: make(map[string]CropShare, len(f.Groups))}

	totalCropArea := f.TotalCropArea()
	avgFarmArea := f.TotalAgriculturalArea / n
	for _, g := range f.Groups {
		share := CropShare{Area: g.Area}
		if avgFarmArea > 0 {
			share.Allocation = perFarm * math.Ceil(g.Area/avgFarmArea)
		}
		if totalCropArea > 0 {
			share.Percentage = g.Area / totalCropArea * 100
		}
		addShare(out.perCrop, g, share)
	}
	return out, nil
}

// addShare keys by category; several groups of one category are merged.
func addShare(m map[string]CropShare, g entities.FarmGroup, s CropShare) {
	k := string(g.Category)
	if prev, ok := m[k]; ok {
		s.Allocation += prev.Allocation
		s.Area += prev.Area
		s.Percentage += prev.Percentage
	}
	m[k] = s
}
