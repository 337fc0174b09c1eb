package entities

import (
	"errors"
	"fmt"
	"math"
)

// OptimizerConfig carries the genetic-algorithm knobs and objective weights.
type OptimizerConfig struct {
	PopulationSize          int     `json:"population_size"`
	MaxGenerations          int     `json:"max_generations"`
	CrossoverRate           float64 `json:"crossover_rate"`
	MutationRate            float64 `json:"mutation_rate"`
	EquityWeight            float64 `json:"equity_weight"`
	SustainabilityWeight    float64 `json:"sustainability_weight"`
	DemandFulfillmentWeight float64 `json:"demand_fulfillment_weight"`
}

// DefaultOptimizerConfig matches the calculator form defaults.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		PopulationSize:          100,
		MaxGenerations:          200,
		CrossoverRate:           0.8,
		MutationRate:            0.1,
		EquityWeight:            35,
		SustainabilityWeight:    35,
		DemandFulfillmentWeight: 30,
	}
}

// TotalWeight is the plain sum of the three weights.
func (c OptimizerConfig) TotalWeight() float64 {
	return c.EquityWeight + c.SustainabilityWeight + c.DemandFulfillmentWeight
}

// Validate returns hard errors joined together, plus soft warnings that do
// not block a run (weights not summing to 100).
func (c OptimizerConfig) Validate() (warnings []string, err error) {
	var errs []error
	if c.PopulationSize < 20 {
		errs = append(errs, fmt.Errorf("population size must be at least 20"))
	}
	if c.MaxGenerations < 10 {
		errs = append(errs, fmt.Errorf("maximum generations must be at least 10"))
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		errs = append(errs, fmt.Errorf("crossover rate must be between 0 and 1"))
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		errs = append(errs, fmt.Errorf("mutation rate must be between 0 and 1"))
	}
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"equity", c.EquityWeight},
		{"sustainability", c.SustainabilityWeight},
		{"demand fulfillment", c.DemandFulfillmentWeight},
	} {
		if w.value < 0 || w.value > 100 {
			errs = append(errs, fmt.Errorf("%s weight must be between 0 and 100", w.name))
		}
	}
	if total := c.TotalWeight(); math.Abs(total-100) > 1e-9 {
		warnings = append(warnings, fmt.Sprintf("objective weights total %.0f%%, adjust to 100%% for balanced optimization", total))
	}
	return warnings, errors.Join(errs...)
}

// NormalizedWeights returns (equity, sustainability, demand) summing to 1.
// All-zero weights resolve to equal thirds.
func (c OptimizerConfig) NormalizedWeights() (equity, sustainability, demand float64) {
	total := c.TotalWeight()
	if total <= 0 {
		return 1.0 / 3, 1.0 / 3, 1.0 / 3
	}
	return c.EquityWeight / total, c.SustainabilityWeight / total, c.DemandFulfillmentWeight / total
}
