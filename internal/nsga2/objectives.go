package nsga2

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Objective indices; every objective is minimised.
const (
	objShortfall = iota
	objUnfairness
	objDraw
	numObjectives
)

type objectives [numObjectives]float64

// Jain returns (Σv)² / (n·Σv²). An empty or all-zero vector scores 0.
func Jain(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := floats.Sum(v)
	if sum == 0 {
		return 0
	}
	sq := floats.Dot(v, v)
	return sum * sum / (float64(len(v)) * sq)
}

// PerHectare drops farms without area; they have no meaningful share.
func PerHectare(alloc, sizes []float64) []float64 {
	out := make([]float64, 0, len(alloc))
	for i, x := range alloc {
		if sizes[i] > 0 {
			out = append(out, x/sizes[i])
		}
	}
	return out
}

// Shortfall is Σ max(0, d_i − x_i).
func Shortfall(alloc, demand []float64) float64 {
	var s float64
	for i, d := range demand {
		s += math.Max(0, d-alloc[i])
	}
	return s
}

// Efficiency is the satisfied share of demand. No demand counts as fully served.
func Efficiency(alloc, demand []float64) float64 {
	total := floats.Sum(demand)
	if total == 0 {
		return 1
	}
	var met float64
	for i, d := range demand {
		met += math.Min(alloc[i], d)
	}
	return met / total
}

func (p *problem) evaluate(x []float64) objectives {
	var o objectives
	o[objShortfall] = Shortfall(x, p.demand)
	o[objUnfairness] = -Jain(PerHectare(x, p.sizes))
	if p.supply > 0 {
		o[objDraw] = floats.Sum(x) / p.supply
	}
	return o
}
