package ports

import (
	"context"
	"route-optimizer-service/internal/domain"
)

// Contract for building the all-pairs distance matrix over
// {driver} ∪ {pickups} ∪ {deliveries}, in kilometers.
//
// Row/column layout: index 0 is the driver, 1..n are pickups in order-list
// order, n+1..2n are the matching deliveries. The in-tree implementation
// uses great-circle distance; a road-network provider can replace it without
// touching the scoring logic.
type DistanceSource interface {
	Matrix(ctx context.Context, driver domain.Location, orders []domain.Order) ([][]float64, error)
}
