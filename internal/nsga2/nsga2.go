// Package nsga2 is the search engine behind the optimizer service: a
// non-dominated sorting genetic algorithm over per-farm allocation vectors.
package nsga2

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/LeonardoBeccarini/water_allocation/internal/model/entities"
	"github.com/LeonardoBeccarini/water_allocation/internal/optimizer"
)

type individual struct {
	genes []float64
	obj   objectives
	rank  int
	crowd float64
}

type problem struct {
	supply float64
	sizes  []float64
	demand []float64
	upper  []float64
}

func newProblem(req optimizer.Request) *problem {
	p := &problem{
		supply: req.TotalWaterSupply,
		sizes:  make([]float64, len(req.Farms)),
		demand: req.Demands(),
		upper:  make([]float64, len(req.Farms)),
	}
	for i, f := range req.Farms {
		p.sizes[i] = f.Size
		p.upper[i] = math.Min(f.CanalCapacity, req.TotalWaterSupply)
	}
	return p
}

type Option func(*Engine)

// WithSeed makes every run reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.seed = seed
		e.fixed = true
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine implements optimizer.Optimizer in process.
type Engine struct {
	seed  uint64
	fixed bool
	log   zerolog.Logger
}

var _ optimizer.Optimizer = (*Engine)(nil)

func New(opts ...Option) *Engine {
	e := &Engine{log: zerolog.Nop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Optimize(ctx context.Context, req optimizer.Request) (optimizer.Result, error) {
	if err := req.Validate(); err != nil {
		return optimizer.Result{}, err
	}
	if _, err := req.Config.Validate(); err != nil {
		return optimizer.Result{}, err
	}
	seed := e.seed
	if !e.fixed {
		seed = uint64(time.Now().UnixNano())
	}
	start := time.Now()
	best, front, err := e.run(ctx, newProblem(req), req.Config, seed)
	if err != nil {
		return optimizer.Result{}, err
	}
	e.log.Debug().
		Int("farms", len(req.Farms)).
		Int("front", front).
		Dur("took", time.Since(start)).
		Msg("search done")
	return buildResult(req, best), nil
}

func (e *Engine) run(ctx context.Context, p *problem, cfg entities.OptimizerConfig, seed uint64) ([]float64, int, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	n := cfg.PopulationSize

	pop := make([]*individual, n)
	for i := range pop {
		g := make([]float64, len(p.upper))
		for j, hi := range p.upper {
			g[j] = rng.Float64() * hi
		}
		pop[i] = p.newIndividual(g)
	}
	rankAndCrowd(pop)

	for gen := 0; gen < cfg.MaxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, fmt.Errorf("generation %d: %w", gen, err)
		}
		offspring := make([]*individual, 0, n+1)
		for len(offspring) < n {
			a := append([]float64(nil), tournament(rng, pop).genes...)
			b := append([]float64(nil), tournament(rng, pop).genes...)
			if rng.Float64() < cfg.CrossoverRate {
				sbx(rng, a, b, p.upper)
			}
			mutate(rng, a, p.upper, cfg.MutationRate)
			mutate(rng, b, p.upper, cfg.MutationRate)
			offspring = append(offspring, p.newIndividual(a), p.newIndividual(b))
		}
		pop = survivors(append(pop, offspring[:n]...), n)
	}

	first := fronts(pop)[0]
	best := pop[compromise(pop, first, cfg)]
	return best.genes, len(first), nil
}

func (p *problem) newIndividual(genes []float64) *individual {
	repair(genes, p.upper, p.supply)
	return &individual{genes: genes, obj: p.evaluate(genes)}
}

func rankAndCrowd(pop []*individual) {
	for _, f := range fronts(pop) {
		assignCrowding(pop, f)
	}
}

// survivors keeps the n best of parents+offspring: whole fronts while they
// fit, then the least crowded members of the split front.
func survivors(all []*individual, n int) []*individual {
	next := make([]*individual, 0, n)
	for _, f := range fronts(all) {
		assignCrowding(all, f)
		if len(next)+len(f) <= n {
			for _, i := range f {
				next = append(next, all[i])
			}
			continue
		}
		rest := make([]*individual, len(f))
		for k, i := range f {
			rest[k] = all[i]
		}
		sort.SliceStable(rest, func(a, b int) bool { return rest[a].crowd > rest[b].crowd })
		next = append(next, rest[:n-len(next)]...)
		break
	}
	return next
}

// compromise picks the front member with the lowest weighted sum of
// min-max normalised objectives. Ties go to the lower shortfall.
func compromise(pop []*individual, front []int, cfg entities.OptimizerConfig) int {
	equity, sustain, demand := cfg.NormalizedWeights()
	var w objectives
	w[objShortfall], w[objUnfairness], w[objDraw] = demand, equity, sustain

	var lo, hi objectives
	for k := 0; k < numObjectives; k++ {
		lo[k], hi[k] = math.Inf(1), math.Inf(-1)
		for _, i := range front {
			lo[k] = math.Min(lo[k], pop[i].obj[k])
			hi[k] = math.Max(hi[k], pop[i].obj[k])
		}
	}

	best, bestScore := front[0], math.Inf(1)
	for _, i := range front {
		var score float64
		for k := 0; k < numObjectives; k++ {
			if hi[k] > lo[k] {
				score += w[k] * (pop[i].obj[k] - lo[k]) / (hi[k] - lo[k])
			}
		}
		switch {
		case score < bestScore-1e-12:
			best, bestScore = i, score
		case math.Abs(score-bestScore) <= 1e-12 && pop[i].obj[objShortfall] < pop[best].obj[objShortfall]:
			best = i
		}
	}
	return best
}

// buildResult floors allocations to the cent so the rounded figures still
// respect supply and canal bounds; metrics use the floored values.
func buildResult(req optimizer.Request, genes []float64) optimizer.Result {
	alloc := make([]float64, len(genes))
	for i, g := range genes {
		alloc[i] = math.Floor(g*100) / 100
	}
	demand := req.Demands()
	sizes := make([]float64, len(req.Farms))
	res := optimizer.Result{Allocations: make([]optimizer.FarmAllocation, len(req.Farms))}
	for i, f := range req.Farms {
		sizes[i] = f.Size
		res.Allocations[i] = optimizer.FarmAllocation{
			FarmID:         f.FarmID,
			FarmSize:       f.Size,
			WaterAllocated: alloc[i],
			Shortage:       scalar.Round(math.Max(0, demand[i]-alloc[i]), 2),
		}
	}
	res.Metrics = optimizer.Metrics{
		TotalShortage:   scalar.Round(Shortfall(alloc, demand), 2),
		FairnessIndex:   scalar.Round(Jain(PerHectare(alloc, sizes)), 2),
		WaterEfficiency: scalar.Round(Efficiency(alloc, demand), 2),
	}
	return res
}
