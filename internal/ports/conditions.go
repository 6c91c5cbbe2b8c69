package ports

import (
	"context"
	"route-optimizer-service/internal/domain"
)

// Contract for the external preparation predictor.
type PreparationPredictor interface {
	// Return the predicted readiness window per order. Orders without a
	// prediction are simply absent from the map.
	Windows(ctx context.Context, orderIDs []string) (map[string]domain.PreparationWindow, error)
}

// Contract for the external traffic/weather provider. Conditions are
// read-mostly snapshots refreshed on the provider's own cadence; one
// optimization run treats them as immutable.
type ConditionProvider interface {
	// Return the current traffic severity per order. Orders without a
	// reading map to TrafficUnknown.
	Traffic(ctx context.Context, orderIDs []string) (map[string]domain.TrafficCondition, error)
}

// Contract for retrieving the driver's latest known coordinate.
type LocationSource interface {
	Current(ctx context.Context, driverID string) (domain.Location, error)
}
