package nsga2

import (
	"math"
	"sort"
)

func dominates(a, b objectives) bool {
	better := false
	for k := range a {
		if a[k] > b[k] {
			return false
		}
		if a[k] < b[k] {
			better = true
		}
	}
	return better
}

// fronts ranks the population by fast non-dominated sorting and returns the
// index sets of each front, best first. rank is written back on every member.
func fronts(pop []*individual) [][]int {
	n := len(pop)
	dominated := make([][]int, n)
	count := make([]int, n)
	var out [][]int
	var first []int
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			switch {
			case dominates(pop[i].obj, pop[j].obj):
				dominated[i] = append(dominated[i], j)
			case dominates(pop[j].obj, pop[i].obj):
				count[i]++
			}
		}
		if count[i] == 0 {
			pop[i].rank = 0
			first = append(first, i)
		}
	}
	cur := first
	for len(cur) > 0 {
		out = append(out, cur)
		var next []int
		for _, i := range cur {
			for _, j := range dominated[i] {
				count[j]--
				if count[j] == 0 {
					pop[j].rank = len(out)
					next = append(next, j)
				}
			}
		}
		cur = next
	}
	return out
}

// assignCrowding sets the crowding distance of every member of one front.
// Boundary points get +Inf.
func assignCrowding(pop []*individual, front []int) {
	for _, i := range front {
		pop[i].crowd = 0
	}
	if len(front) <= 2 {
		for _, i := range front {
			pop[i].crowd = math.Inf(1)
		}
		return
	}
	idx := append([]int(nil), front...)
	for k := 0; k < numObjectives; k++ {
		sort.SliceStable(idx, func(a, b int) bool { return pop[idx[a]].obj[k] < pop[idx[b]].obj[k] })
		lo, hi := pop[idx[0]].obj[k], pop[idx[len(idx)-1]].obj[k]
		pop[idx[0]].crowd = math.Inf(1)
		pop[idx[len(idx)-1]].crowd = math.Inf(1)
		if hi == lo {
			continue
		}
		for m := 1; m < len(idx)-1; m++ {
			pop[idx[m]].crowd += (pop[idx[m+1]].obj[k] - pop[idx[m-1]].obj[k]) / (hi - lo)
		}
	}
}

// crowdedLess is the crowded-comparison operator: lower rank wins, then
// larger crowding distance.
func crowdedLess(a, b *individual) bool {
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	return a.crowd > b.crowd
}
