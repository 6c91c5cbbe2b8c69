package engine

import (
	"context"
	"fmt"
	"math"

	"route-optimizer-service/internal/domain"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between two coordinates in
// kilometers.
func Haversine(a, b domain.Location) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// Index helpers for the (1+2n)x(1+2n) matrix layout: 0 is the driver,
// 1..n are pickups, n+1..2n are deliveries.
func pickupIndex(i int) int      { return 1 + i }
func deliveryIndex(i, n int) int { return 1 + n + i }

// BuildDistanceMatrix computes all pairwise great-circle distances over the
// driver position and every pickup and delivery point. O(n^2); batches are
// small (typically <=10 orders).
//
// Returns a DataError if the driver position or any order coordinate is
// missing: this engine does not geocode, callers substitute defaults
// upstream.
func BuildDistanceMatrix(driver domain.Location, orders []domain.Order) ([][]float64, error) {
	if driver.IsZero() {
		return nil, &domain.DataError{Reason: "driver location is missing"}
	}

	n := len(orders)
	points := make([]domain.Location, 1+2*n)
	points[0] = driver
	for i, o := range orders {
		if o.Pickup.IsZero() {
			return nil, &domain.DataError{Reason: fmt.Sprintf("order %s has no pickup coordinates", o.ID)}
		}
		if o.Delivery.IsZero() {
			return nil, &domain.DataError{Reason: fmt.Sprintf("order %s has no delivery coordinates", o.ID)}
		}
		points[pickupIndex(i)] = o.Pickup
		points[deliveryIndex(i, n)] = o.Delivery
	}

	size := len(points)
	matrix := make([][]float64, size)
	for i := range matrix {
		matrix[i] = make([]float64, size)
	}

	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			d := Haversine(points[i], points[j])
			matrix[i][j] = d
			matrix[j][i] = d
		}
	}

	return matrix, nil
}

// HaversineSource is the in-tree DistanceSource: great-circle distance as a
// road-distance proxy. Good enough for relative comparison between candidate
// sequences, not for accurate ETAs.
type HaversineSource struct{}

func (HaversineSource) Matrix(_ context.Context, driver domain.Location, orders []domain.Order) ([][]float64, error) {
	return BuildDistanceMatrix(driver, orders)
}
