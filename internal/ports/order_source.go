package ports

import (
	"context"
	"route-optimizer-service/internal/domain"
)

// Port: a boundary for retrieving the orders of a batch from the external
// order source.
type OrderSource interface {
	// Retrieve every order in the batch.
	BatchOrders(ctx context.Context, batchID string) ([]domain.Order, error)
	// Retrieve the orders that are not yet delivered or cancelled.
	RemainingOrders(ctx context.Context, batchID string) ([]domain.Order, error)
	// Resolve the driver carrying the batch.
	BatchDriver(ctx context.Context, batchID string) (string, error)
}

// Optional extension for callers that persist produced routes. The engine
// keeps only the current plan and the one it superseded.
type RouteStore interface {
	SaveRoute(ctx context.Context, route *domain.OptimizedRoute) error
}
