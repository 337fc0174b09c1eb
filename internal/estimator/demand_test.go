package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/water_allocation/internal/model/entities"
)

func TestSoilMoistureFactor(t *testing.T) {
	assert.Equal(t, 0.5, SoilMoistureFactor(100))
	assert.Equal(t, 0.5, SoilMoistureFactor(140))
	assert.Equal(t, 0.5, SoilMoistureFactor(65))
	assert.Equal(t, 0.5, SoilMoistureFactor(50))
	assert.InDelta(t, 0.8, SoilMoistureFactor(20), 1e-12)
	assert.Equal(t, 1.0, SoilMoistureFactor(0))
}

func TestAgriculturalDemand_PriorityAppliedToTotal(t *testing.T) {
	f := entities.FarmData{
		CurrentSoilMoisture:  0,
		IrrigationEfficiency: 100,
		Groups: []entities.FarmGroup{
			{Category: entities.CategoryRice, CropType: "Hybrid", Area: 10},
			{Category: entities.CategoryCorn, CropType: "Yellow", Area: 10},
		},
	}
	medium, groups, err := AgriculturalDemand(f, entities.PriorityMedium)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.InDelta(t, 100.0, groups[0].Demand, 1e-9)
	assert.InDelta(t, 60.0, groups[1].Demand, 1e-9)
	assert.InDelta(t, 160.0, medium, 1e-9)

	high, _, _ := AgriculturalDemand(f, entities.PriorityHigh)
	low, _, _ := AgriculturalDemand(f, entities.PriorityLow)
	unknown, _, _ := AgriculturalDemand(f, entities.PriorityLevel("Urgent"))
	assert.InDelta(t, 192.0, high, 1e-9)
	assert.InDelta(t, 128.0, low, 1e-9)
	assert.InDelta(t, medium, unknown, 1e-9)
}

func TestAgriculturalDemand_UnknownCropFailsClosed(t *testing.T) {
	f := entities.FarmData{
		IrrigationEfficiency: 100,
		Groups: []entities.FarmGroup{
			{Category: entities.CategoryRice, CropType: "Basmati", Area: 1},
			{Category: entities.CropCategory("sorghum"), CropType: "", Area: 1},
		},
	}
	_, groups, err := AgriculturalDemand(f, entities.PriorityMedium)
	require.NoError(t, err)
	assert.Equal(t, "Inbred", groups[0].CropType)
	assert.InDelta(t, 8.5, groups[0].Demand, 1e-9)
	assert.Equal(t, "Inbred", groups[1].CropType)
}

func TestAgriculturalDemand_ZeroEfficiency(t *testing.T) {
	_, _, err := AgriculturalDemand(entities.FarmData{}, entities.PriorityMedium)
	assert.ErrorIs(t, err, ErrInvalidEfficiency)
}
