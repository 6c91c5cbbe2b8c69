package engine

import (
	"math"
	"testing"
	"time"

	"route-optimizer-service/internal/domain"
)

func TestBuildRouteWaypoints(t *testing.T) {
	driver := domain.Location{Lat: 3.1390, Lon: 101.6869}
	orders := makeOrders(
		[4]float64{3.1500, 101.7000, 3.1600, 101.7100},
		[4]float64{3.1300, 101.6800, 3.1200, 101.6700},
	)

	matrix, err := BuildDistanceMatrix(driver, orders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cond := testConditions()
	perm := []int{1, 0}
	route := BuildRoute("batch-1", orders, perm, matrix, 0.75, domain.BalancedCriteria(), cond)

	if route.BatchID != "batch-1" {
		t.Fatalf("batch id = %q, want batch-1", route.BatchID)
	}
	if route.ID == "" {
		t.Fatal("route id must be set")
	}
	if len(route.Waypoints) != 4 {
		t.Fatalf("got %d waypoints, want 4", len(route.Waypoints))
	}

	// Sequence indices contiguous from 1, pickups strictly before deliveries.
	for i, w := range route.Waypoints {
		if w.Sequence != i+1 {
			t.Fatalf("waypoint %d has sequence %d, want %d", i, w.Sequence, i+1)
		}
	}
	for _, w := range route.Waypoints[:2] {
		if w.Type != domain.WaypointPickup {
			t.Fatalf("first half contains %s, want pickups only", w.Type)
		}
	}
	for _, w := range route.Waypoints[2:] {
		if w.Type != domain.WaypointDelivery {
			t.Fatalf("second half contains %s, want deliveries only", w.Type)
		}
	}

	// Permutation order is preserved within each phase.
	if route.Waypoints[0].OrderID != "b" || route.Waypoints[1].OrderID != "a" {
		t.Fatalf("pickup order = %s,%s, want b,a", route.Waypoints[0].OrderID, route.Waypoints[1].OrderID)
	}
	if route.Waypoints[2].OrderID != "b" || route.Waypoints[3].OrderID != "a" {
		t.Fatalf("delivery order = %s,%s, want b,a", route.Waypoints[2].OrderID, route.Waypoints[3].OrderID)
	}

	// Total distance equals the sum of per-leg distances.
	sum := 0.0
	for _, w := range route.Waypoints {
		sum += w.DistanceFromPrevKm
	}
	if math.Abs(sum-route.TotalDistanceKm) > 1e-9 {
		t.Fatalf("leg sum %.6f != total %.6f", sum, route.TotalDistanceKm)
	}

	if route.Score != 75 {
		t.Fatalf("score = %v, want 75", route.Score)
	}
	if route.DurationInTraffic != time.Duration(float64(route.TotalDuration)*1.2) {
		t.Fatalf("traffic duration = %v, want 1.2x %v", route.DurationInTraffic, route.TotalDuration)
	}
}

func TestBuildRouteETAProgression(t *testing.T) {
	driver := domain.Location{Lat: 3.1390, Lon: 101.6869}
	orders := makeOrders([4]float64{3.1500, 101.7000, 3.1600, 101.7100})

	matrix, err := BuildDistanceMatrix(driver, orders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cond := testConditions()
	route := BuildRoute("batch-1", orders, []int{0}, matrix, 0.5, domain.BalancedCriteria(), cond)

	pickup := route.Waypoints[0]
	delivery := route.Waypoints[1]

	// First ETA is departure plus the leg at 40 km/h.
	wantTravel := time.Duration(matrix[0][1] / 40.0 * float64(time.Hour))
	if got := pickup.EstimatedArrival.Sub(cond.Now); got != wantTravel {
		t.Fatalf("pickup ETA offset = %v, want %v", got, wantTravel)
	}
	if pickup.ServiceDuration != 5*time.Minute {
		t.Fatalf("pickup service = %v, want 5m", pickup.ServiceDuration)
	}
	if delivery.ServiceDuration != 3*time.Minute {
		t.Fatalf("delivery service = %v, want 3m", delivery.ServiceDuration)
	}

	// Delivery ETA includes the pickup's service time.
	if !delivery.EstimatedArrival.After(pickup.EstimatedArrival.Add(5 * time.Minute)) {
		t.Fatal("delivery ETA must come after the pickup's service window")
	}

	// Total duration covers travel and service at every stop.
	wantTotal := delivery.EstimatedArrival.Add(3 * time.Minute).Sub(cond.Now)
	if route.TotalDuration != wantTotal {
		t.Fatalf("total duration = %v, want %v", route.TotalDuration, wantTotal)
	}
}

func TestBuildRouteScoreClamping(t *testing.T) {
	driver := domain.Location{Lat: 3.1390, Lon: 101.6869}
	orders := makeOrders([4]float64{3.1500, 101.7000, 3.1600, 101.7100})
	matrix, err := BuildDistanceMatrix(driver, orders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cond := testConditions()
	if r := BuildRoute("b", orders, []int{0}, matrix, 1.3, domain.BalancedCriteria(), cond); r.Score != 100 {
		t.Fatalf("score = %v, want clamp to 100", r.Score)
	}
	if r := BuildRoute("b", orders, []int{0}, matrix, -0.2, domain.BalancedCriteria(), cond); r.Score != 0 {
		t.Fatalf("score = %v, want clamp to 0", r.Score)
	}
}
