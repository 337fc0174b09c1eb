package nsga2

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

const (
	etaCrossover = 15.0
	etaMutation  = 20.0
)

// sbx is bounded simulated binary crossover on [0, ub_i], gene-wise with
// probability one half.
func sbx(rng *rand.Rand, a, b, ub []float64) {
	for i := range a {
		if rng.Float64() > 0.5 {
			continue
		}
		hi := ub[i]
		x1, x2 := a[i], b[i]
		if hi <= 0 || math.Abs(x1-x2) < 1e-14 {
			continue
		}
		if x1 > x2 {
			x1, x2 = x2, x1
		}
		r := rng.Float64()
		span := x2 - x1

		beta := 1 + 2*x1/span
		c1 := 0.5 * ((x1 + x2) - spreadFactor(r, beta)*span)
		beta = 1 + 2*(hi-x2)/span
		c2 := 0.5 * ((x1 + x2) + spreadFactor(r, beta)*span)

		c1, c2 = clamp(c1, hi), clamp(c2, hi)
		if rng.Float64() < 0.5 {
			c1, c2 = c2, c1
		}
		a[i], b[i] = c1, c2
	}
}

func spreadFactor(r, beta float64) float64 {
	alpha := 2 - math.Pow(beta, -(etaCrossover+1))
	if r <= 1/alpha {
		return math.Pow(r*alpha, 1/(etaCrossover+1))
	}
	return math.Pow(1/(2-r*alpha), 1/(etaCrossover+1))
}

// mutate applies bounded polynomial mutation to each gene with probability rate.
func mutate(rng *rand.Rand, x, ub []float64, rate float64) {
	mp := 1 / (etaMutation + 1)
	for i := range x {
		if rng.Float64() >= rate {
			continue
		}
		hi := ub[i]
		if hi <= 0 {
			x[i] = 0
			continue
		}
		d1, d2 := x[i]/hi, (hi-x[i])/hi
		r := rng.Float64()
		var dq float64
		if r < 0.5 {
			v := 2*r + (1-2*r)*math.Pow(1-d1, etaMutation+1)
			dq = math.Pow(v, mp) - 1
		} else {
			v := 2*(1-r) + 2*(r-0.5)*math.Pow(1-d2, etaMutation+1)
			dq = 1 - math.Pow(v, mp)
		}
		x[i] = clamp(x[i]+dq*hi, hi)
	}
}

// repair clamps every gene to its bound and scales the vector down when
// it draws more than supply.
func repair(x, ub []float64, supply float64) {
	for i := range x {
		x[i] = clamp(x[i], ub[i])
	}
	sum := floats.Sum(x)
	if sum <= supply || sum == 0 {
		return
	}
	floats.Scale(supply/sum, x)
	// scaling can land a few ulps above supply
	for floats.Sum(x) > supply {
		floats.Scale(1-1e-12, x)
	}
}

// tournament is binary tournament selection under the crowded comparison.
func tournament(rng *rand.Rand, pop []*individual) *individual {
	a, b := pop[rng.IntN(len(pop))], pop[rng.IntN(len(pop))]
	if crowdedLess(b, a) {
		return b
	}
	return a
}

func clamp(v, hi float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
