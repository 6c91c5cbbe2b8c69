package engine

import (
	"route-optimizer-service/internal/domain"
)

// Above this batch size exhaustive enumeration gives way to the
// nearest-neighbor + 2-opt heuristic.
const exactSolveLimit = 3

// 2-opt runs full passes until one yields no improving reversal; the cap
// bounds runtime if a pathological input keeps oscillating near the optimum.
const maxTwoOptPasses = 25

// Seed selection for nearest-neighbor: an order counts as confidently ready
// at or above this prediction confidence.
const seedConfidence = 0.7

// SolveSequence returns the permutation of order indices maximizing the
// weighted multi-objective score, together with that score in [0,1].
//
// n <= exactSolveLimit enumerates all n! permutations (deterministic
// optimum); larger batches use nearest-neighbor construction followed by
// 2-opt local search. An empty order list yields an empty permutation, not
// an error.
func SolveSequence(orders []domain.Order, matrix [][]float64, cond Conditions, criteria domain.OptimizationCriteria) ([]int, float64, error) {
	if !criteria.IsValid() {
		return nil, 0, &domain.ConfigurationError{Reason: "criteria weights must be non-negative and sum to 1.0"}
	}

	n := len(orders)
	if n == 0 {
		return []int{}, 0, nil
	}
	if n == 1 {
		return []int{0}, scorePermutation(orders, []int{0}, matrix, cond, criteria), nil
	}

	score := func(perm []int) float64 {
		return scorePermutation(orders, perm, matrix, cond, criteria)
	}

	if n <= exactSolveLimit {
		best, bestScore := solveExact(n, score)
		return best, bestScore, nil
	}

	perm := nearestNeighborOrder(orders, matrix, cond, criteria)
	perm, bestScore := twoOpt(perm, score)
	return perm, bestScore, nil
}

// solveExact visits every permutation of [0,n) with an iterative Heap's
// algorithm and keeps the highest-scoring one. The permutation slice is
// mutated in place; only the best copy escapes.
func solveExact(n int, score func([]int) float64) ([]int, float64) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	best := append([]int(nil), perm...)
	bestScore := score(perm)

	// Heap's algorithm, iterative form: c acts as the stack pointer.
	c := make([]int, n)
	i := 0
	for i < n {
		if c[i] < i {
			if i%2 == 0 {
				perm[0], perm[i] = perm[i], perm[0]
			} else {
				perm[c[i]], perm[i] = perm[i], perm[c[i]]
			}

			if s := score(perm); s > bestScore {
				bestScore = s
				copy(best, perm)
			}

			c[i]++
			i = 0
		} else {
			c[i] = 0
			i++
		}
	}

	return best, bestScore
}

// nearestNeighborOrder builds an initial sequence greedily: start from the
// order whose preparation window signals the earliest high-confidence
// readiness, then repeatedly append the unvisited order with the best
// weighted transition from the current position.
func nearestNeighborOrder(orders []domain.Order, matrix [][]float64, cond Conditions, criteria domain.OptimizationCriteria) []int {
	n := len(orders)
	visited := make([]bool, n)
	perm := make([]int, 0, n)

	start := seedOrder(orders, cond)
	perm = append(perm, start)
	visited[start] = true

	current := pickupIndex(start)
	clock := cond.Now.Add(initialTravel)

	for len(perm) < n {
		clock = clock.Add(perOrderTravel)

		bestIdx := -1
		bestScore := -1.0
		for idx := 0; idx < n; idx++ {
			if visited[idx] {
				continue
			}
			s := transitionScore(orders, idx, current, clock, matrix, cond, criteria)
			// Tie-breaker ensures deterministic ordering when scores are equal.
			if s > bestScore || (s == bestScore && (bestIdx == -1 || orders[idx].ID < orders[bestIdx].ID)) {
				bestScore = s
				bestIdx = idx
			}
		}

		perm = append(perm, bestIdx)
		visited[bestIdx] = true
		current = pickupIndex(bestIdx)
	}

	return perm
}

// seedOrder picks the construction start: earliest predicted readiness among
// confident predictions, falling back to earliest overall, then to index 0
// when no windows were supplied.
func seedOrder(orders []domain.Order, cond Conditions) int {
	best := -1
	bestConfident := false
	for i, o := range orders {
		w, ok := cond.Prep[o.ID]
		if !ok {
			continue
		}
		confident := w.Confidence >= seedConfidence
		switch {
		case best == -1:
		case confident && !bestConfident:
		case confident == bestConfident && w.EstimatedReady.Before(cond.Prep[orders[best].ID].EstimatedReady):
		default:
			continue
		}
		best = i
		bestConfident = confident
	}
	if best == -1 {
		return 0
	}
	return best
}

// twoOpt improves a permutation by reversing sub-sequences between every
// pair of positions and keeping strictly improving reversals. Passes repeat
// until one yields no improvement (2-opt local optimum) or the pass cap is
// hit. O(n^2) per pass.
func twoOpt(perm []int, score func([]int) float64) ([]int, float64) {
	best := append([]int(nil), perm...)
	bestScore := score(best)
	n := len(best)

	for pass := 0; pass < maxTwoOptPasses; pass++ {
		improved := false
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				candidate := reverseSegment(best, i, j)
				if s := score(candidate); s > bestScore {
					best = candidate
					bestScore = s
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}

	return best, bestScore
}

// reverseSegment returns a copy of perm with positions i..j reversed.
func reverseSegment(perm []int, i, j int) []int {
	out := append([]int(nil), perm...)
	for l, r := i, j; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}
