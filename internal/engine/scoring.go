package engine

import (
	"time"

	"route-optimizer-service/internal/domain"
)

// Normalization and clock constants for the scoring model. The simulated
// clock assumes 15 minutes of initial travel plus 20 minutes per subsequent
// order; delays decay the preparation credit over 30 minutes.
const (
	distanceNormKm    = 50.0
	initialTravel     = 15 * time.Minute
	perOrderTravel    = 20 * time.Minute
	delayDecay        = 30 * time.Minute
	defaultPrepCredit = 0.5
	transitionLegNorm = 10.0

	// Customer delivery windows are not modeled yet; a fixed credit keeps
	// the weight vector meaningful until they are.
	deliveryWindowCredit = 0.8
)

// Per-run snapshot of externally supplied conditions. Immutable for the
// duration of one solve.
type Conditions struct {
	Prep    map[string]domain.PreparationWindow
	Traffic map[string]domain.TrafficCondition
	Now     time.Time
}

// routeDistanceKm sums the legs of the two-phase route implied by perm:
// driver -> first pickup, pickup chain, last pickup -> first delivery,
// delivery chain.
func routeDistanceKm(matrix [][]float64, perm []int) float64 {
	n := len(perm)
	if n == 0 {
		return 0
	}

	total := matrix[0][pickupIndex(perm[0])]
	for i := 1; i < n; i++ {
		total += matrix[pickupIndex(perm[i-1])][pickupIndex(perm[i])]
	}
	total += matrix[pickupIndex(perm[n-1])][deliveryIndex(perm[0], n)]
	for i := 1; i < n; i++ {
		total += matrix[deliveryIndex(perm[i-1], n)][deliveryIndex(perm[i], n)]
	}
	return total
}

func distanceScore(totalKm float64) float64 {
	s := 1 - totalKm/distanceNormKm
	if s < 0 {
		return 0
	}
	return s
}

// prepScore walks the permutation with the simulated clock and credits each
// order by how well its predicted readiness lines up with the simulated
// pickup moment.
func prepScore(orders []domain.Order, perm []int, cond Conditions) float64 {
	if len(perm) == 0 {
		return 0
	}

	total := 0.0
	clock := cond.Now.Add(initialTravel)
	for i, idx := range perm {
		if i > 0 {
			clock = clock.Add(perOrderTravel)
		}

		w, ok := cond.Prep[orders[idx].ID]
		if !ok {
			total += defaultPrepCredit
			continue
		}

		if !w.EstimatedReady.After(clock) {
			total += w.Confidence
			continue
		}

		delay := w.EstimatedReady.Sub(clock)
		credit := 1 - delay.Minutes()/delayDecay.Minutes()
		if credit < 0 {
			credit = 0
		}
		total += w.Confidence * credit
	}
	return total / float64(len(perm))
}

func trafficScore(orders []domain.Order, perm []int, cond Conditions) float64 {
	if len(perm) == 0 {
		return 0
	}

	total := 0.0
	for _, idx := range perm {
		c, ok := cond.Traffic[orders[idx].ID]
		if !ok {
			c = domain.TrafficUnknown
		}
		total += c.Score()
	}
	return total / float64(len(perm))
}

// scorePermutation combines the four normalized sub-scores into the weighted
// total in [0,1]. The route builder scales it to 0-100 for display.
func scorePermutation(orders []domain.Order, perm []int, matrix [][]float64, cond Conditions, criteria domain.OptimizationCriteria) float64 {
	return distanceScore(routeDistanceKm(matrix, perm))*criteria.Distance +
		prepScore(orders, perm, cond)*criteria.PreparationTime +
		trafficScore(orders, perm, cond)*criteria.Traffic +
		deliveryWindowCredit*criteria.DeliveryWindow
}

// transitionScore rates moving from the matrix point at fromIdx to the
// pickup of candidate order idx at the given simulated time. Used by the
// nearest-neighbor construction; same weights as the full score, applied to
// a single leg.
func transitionScore(orders []domain.Order, idx, fromIdx int, at time.Time, matrix [][]float64, cond Conditions, criteria domain.OptimizationCriteria) float64 {
	leg := matrix[fromIdx][pickupIndex(idx)]
	legScore := 1 - leg/transitionLegNorm
	if legScore < 0 {
		legScore = 0
	}

	prep := defaultPrepCredit
	if w, ok := cond.Prep[orders[idx].ID]; ok {
		if !w.EstimatedReady.After(at) {
			prep = w.Confidence
		} else {
			credit := 1 - w.EstimatedReady.Sub(at).Minutes()/delayDecay.Minutes()
			if credit < 0 {
				credit = 0
			}
			prep = w.Confidence * credit
		}
	}

	traffic := domain.TrafficUnknown
	if c, ok := cond.Traffic[orders[idx].ID]; ok {
		traffic = c
	}

	return legScore*criteria.Distance + prep*criteria.PreparationTime + traffic.Score()*criteria.Traffic
}
