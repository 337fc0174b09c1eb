package estimator

import "github.com/LeonardoBeccarini/water_allocation/internal/model/entities"

const (
	// StorageUnitM3 converts reservoir storage (MCM) to m³.
	StorageUnitM3 = 1_000_000.0
	// RainfallUnitM3 converts 1 mm of rain over 1 ha to m³ (10 000 m² × 0.001 m).
	RainfallUnitM3 = 10.0
)

// TotalWaterAvailable spreads stored water, inflow and watershed rainfall over
// the calculation period and returns m³/day.
func TotalWaterAvailable(r entities.ReservoirState, periodDays int, totalAgriculturalArea float64) (float64, error) {
	if periodDays <= 0 {
		return 0, ErrInvalidPeriod
	}
	period := float64(periodDays)
	storage := r.CurrentStorageVolume * StorageUnitM3
	inflow := r.DailyInflowRate * period
	rain := r.RainfallInWatershed * totalAgriculturalArea * RainfallUnitM3
	return (storage + inflow + rain) / period, nil
}
