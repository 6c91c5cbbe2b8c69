package engine

import (
	"context"
	"fmt"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
)

// Bound on each external fetch (orders, location, conditions) so a slow
// provider cannot stall a recomputation cycle.
const fetchTimeout = 3 * time.Second

// Optimizer wires the solve pipeline to its external collaborators:
// matrix build -> sequence solve -> route build against freshly fetched
// orders, driver location, preparation windows and traffic conditions.
type Optimizer struct {
	Orders    ports.OrderSource
	Prep      ports.PreparationPredictor
	Condition ports.ConditionProvider
	Location  ports.LocationSource
	Distance  ports.DistanceSource
}

// ComputeRoute produces the initial optimized route for a full batch.
// Solver and builder errors surface directly; a silent fallback to a
// degraded route would be worse than a visible failure.
func (o *Optimizer) ComputeRoute(ctx context.Context, batchID, driverID string, criteria domain.OptimizationCriteria) (_ *domain.OptimizedRoute, err error) {
	ctx = obs.WithBatch(ctx, batchID)
	defer obs.Time(ctx, "engine.ComputeRoute")(&err)

	orders, err := o.fetchOrders(ctx, batchID, false)
	if err != nil {
		return nil, err
	}
	return o.computeFor(ctx, batchID, driverID, orders, criteria)
}

// RecomputeRemaining re-optimizes against the not-yet-completed orders of a
// batch. The remaining-order count is returned so the monitor can skip
// publication decisions for degenerate batches.
func (o *Optimizer) RecomputeRemaining(ctx context.Context, batchID, driverID string, criteria domain.OptimizationCriteria) (_ *domain.OptimizedRoute, remaining int, err error) {
	ctx = obs.WithBatch(ctx, batchID)
	defer obs.Time(ctx, "engine.RecomputeRemaining")(&err)

	orders, err := o.fetchOrders(ctx, batchID, true)
	if err != nil {
		return nil, 0, err
	}
	if len(orders) <= 1 {
		return nil, len(orders), nil
	}

	route, err := o.computeFor(ctx, batchID, driverID, orders, criteria)
	if err != nil {
		return nil, len(orders), err
	}
	return route, len(orders), nil
}

func (o *Optimizer) computeFor(ctx context.Context, batchID, driverID string, orders []domain.Order, criteria domain.OptimizationCriteria) (*domain.OptimizedRoute, error) {
	if !criteria.IsValid() {
		return nil, &domain.ConfigurationError{Reason: "criteria weights must be non-negative and sum to 1.0"}
	}

	driver, err := o.fetchLocation(ctx, driverID)
	if err != nil {
		return nil, err
	}

	cond, err := o.fetchConditions(ctx, orders)
	if err != nil {
		return nil, err
	}

	matrix, err := o.Distance.Matrix(ctx, driver, orders)
	if err != nil {
		return nil, fmt.Errorf("compute route: build distance matrix for batch %s: %w", batchID, err)
	}

	perm, score, err := SolveSequence(orders, matrix, cond, criteria)
	if err != nil {
		return nil, fmt.Errorf("compute route: solve sequence for batch %s: %w", batchID, err)
	}

	return BuildRoute(batchID, orders, perm, matrix, score, criteria, cond), nil
}

func (o *Optimizer) fetchOrders(ctx context.Context, batchID string, remainingOnly bool) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	var (
		orders []domain.Order
		err    error
	)
	if remainingOnly {
		orders, err = o.Orders.RemainingOrders(ctx, batchID)
	} else {
		orders, err = o.Orders.BatchOrders(ctx, batchID)
	}
	if err != nil {
		return nil, fmt.Errorf("compute route: list orders for batch %s: %w", batchID, err)
	}
	return orders, nil
}

func (o *Optimizer) fetchLocation(ctx context.Context, driverID string) (domain.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	loc, err := o.Location.Current(ctx, driverID)
	if err != nil {
		return domain.Location{}, fmt.Errorf("compute route: current location for driver %s: %w", driverID, err)
	}
	return loc, nil
}

func (o *Optimizer) fetchConditions(ctx context.Context, orders []domain.Order) (Conditions, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	ids := make([]string, len(orders))
	for i, ord := range orders {
		ids[i] = ord.ID
	}

	prep, err := o.Prep.Windows(ctx, ids)
	if err != nil {
		return Conditions{}, fmt.Errorf("compute route: preparation windows: %w", err)
	}

	traffic, err := o.Condition.Traffic(ctx, ids)
	if err != nil {
		return Conditions{}, fmt.Errorf("compute route: traffic conditions: %w", err)
	}

	return Conditions{Prep: prep, Traffic: traffic, Now: time.Now().UTC()}, nil
}
