package entities

import "fmt"

type PriorityLevel string

const (
	PriorityHigh   PriorityLevel = "High"
	PriorityMedium PriorityLevel = "Medium"
	PriorityLow    PriorityLevel = "Low"
)

// Multiplier applied to total demand. Unknown levels count as Medium.
func (p PriorityLevel) Multiplier() float64 {
	switch p {
	case PriorityHigh:
		return 1.2
	case PriorityLow:
		return 0.8
	default:
		return 1.0
	}
}

type AllocationMethod string

const (
	MethodProportional  AllocationMethod = "Proportional"
	MethodEqualPriority AllocationMethod = "Equal Priority"
)

// AllocationPolicy selects how available water is split between crops.
type AllocationPolicy struct {
	PriorityLevel            PriorityLevel    `json:"priority_level"`
	Method                   AllocationMethod `json:"method"`
	MinimumEnvironmentalFlow float64          `json:"minimum_environmental_flow"` // m³/day, never allocated
	CalculationPeriod        int              `json:"calculation_period"`         // days
}

// Validate applies the form limits. A zero period is left to the estimator,
// which reports it as ErrInvalidPeriod.
func (p AllocationPolicy) Validate() error {
	if p.MinimumEnvironmentalFlow < 0 {
		return fmt.Errorf("minimum environmental flow must be non-negative")
	}
	if p.CalculationPeriod > 365 {
		return fmt.Errorf("calculation period cannot exceed 365 days")
	}
	switch p.Method {
	case MethodProportional, MethodEqualPriority, "":
	default:
		return fmt.Errorf("unknown allocation method %q", p.Method)
	}
	return nil
}
