package engine

import (
	"time"

	"github.com/google/uuid"

	"route-optimizer-service/internal/domain"
)

// ETA assumptions: constant average travel speed plus fixed per-stop service
// durations.
const (
	averageSpeedKmh = 40.0
	pickupService   = 5 * time.Minute
	deliveryService = 3 * time.Minute

	// Flat multiplier until per-segment traffic ETAs are available.
	trafficFactor = 1.2
)

// BuildRoute expands a winning permutation into a timestamped waypoint
// sequence and aggregates it into an OptimizedRoute.
//
// Stops are scheduled two-phase: every pickup in permutation order, then
// every delivery in the same order. Interleaved pickup/delivery sequencing
// is a larger redesign because the scoring clock assumes the two phases.
func BuildRoute(batchID string, orders []domain.Order, perm []int, matrix [][]float64, score float64, criteria domain.OptimizationCriteria, cond Conditions) *domain.OptimizedRoute {
	n := len(perm)
	waypoints := make([]domain.RouteWaypoint, 0, 2*n)

	clock := cond.Now
	totalKm := 0.0
	prev := 0 // driver position

	appendStop := func(kind domain.WaypointType, orderIdx, matrixIdx int, loc domain.Location, service time.Duration) {
		leg := matrix[prev][matrixIdx]
		totalKm += leg
		travel := time.Duration(leg / averageSpeedKmh * float64(time.Hour))
		clock = clock.Add(travel)

		waypoints = append(waypoints, domain.RouteWaypoint{
			Type:               kind,
			OrderID:            orders[orderIdx].ID,
			Location:           loc,
			Sequence:           len(waypoints) + 1,
			EstimatedArrival:   clock,
			ServiceDuration:    service,
			DistanceFromPrevKm: leg,
		})

		clock = clock.Add(service)
		prev = matrixIdx
	}

	for _, idx := range perm {
		appendStop(domain.WaypointPickup, idx, pickupIndex(idx), orders[idx].Pickup, pickupService)
	}
	for _, idx := range perm {
		appendStop(domain.WaypointDelivery, idx, deliveryIndex(idx, n), orders[idx].Delivery, deliveryService)
	}

	totalDuration := clock.Sub(cond.Now)

	overall := domain.TrafficUnknown
	if n > 0 {
		overall = domain.TrafficFromScore(trafficScore(orders, perm, cond))
	}

	display := score * 100
	if display < 0 {
		display = 0
	}
	if display > 100 {
		display = 100
	}

	return &domain.OptimizedRoute{
		ID:                uuid.NewString(),
		BatchID:           batchID,
		Waypoints:         waypoints,
		TotalDistanceKm:   totalKm,
		TotalDuration:     totalDuration,
		DurationInTraffic: time.Duration(float64(totalDuration) * trafficFactor),
		Score:             display,
		Criteria:          criteria,
		OverallTraffic:    overall,
		CreatedAt:         cond.Now,
	}
}
