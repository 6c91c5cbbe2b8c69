package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"route-optimizer-service/internal/domain"
)

// Postgres-backed implementation of the OrderSource and RouteStore ports.
type PostgresOrderSource struct{ DB *sql.DB }

func NewPostgresOrderSource(db *sql.DB) *PostgresOrderSource {
	return &PostgresOrderSource{DB: db}
}

// Return every order in the batch.
func (s *PostgresOrderSource) BatchOrders(ctx context.Context, batchID string) ([]domain.Order, error) {
	return s.listOrders(ctx, batchID, false)
}

// Return the orders of the batch that are not yet delivered or cancelled.
func (s *PostgresOrderSource) RemainingOrders(ctx context.Context, batchID string) ([]domain.Order, error) {
	return s.listOrders(ctx, batchID, true)
}

func (s *PostgresOrderSource) listOrders(ctx context.Context, batchID string, remainingOnly bool) ([]domain.Order, error) {
	if s.DB == nil {
		return nil, errors.New("order source: DB is nil")
	}

	query := `
	SELECT
		id,
		batch_id,
		pickup_lat, pickup_lon,
		delivery_lat, delivery_lon,
		status
	FROM orders
	WHERE batch_id = $1
	`
	if remainingOnly {
		query += ` AND status NOT IN ('delivered', 'cancelled')`
	}
	query += ` ORDER BY id;`

	rows, err := s.DB.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, domain.Transient("list orders", fmt.Errorf("query orders table: %w", err))
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 16)
	for rows.Next() {
		var o domain.Order
		err := rows.Scan(&o.ID, &o.BatchID, &o.Pickup.Lat, &o.Pickup.Lon, &o.Delivery.Lat, &o.Delivery.Lon, &o.Status)
		if err != nil {
			return nil, fmt.Errorf("list orders: scan row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: row iteration: %w", err)
	}

	return orders, nil
}

// Resolve the driver carrying a batch.
func (s *PostgresOrderSource) BatchDriver(ctx context.Context, batchID string) (string, error) {
	if s.DB == nil {
		return "", errors.New("order source: DB is nil")
	}

	var driverID string
	err := s.DB.QueryRowContext(ctx, `SELECT driver_id FROM batches WHERE id = $1;`, batchID).Scan(&driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &domain.DataError{Reason: fmt.Sprintf("batch %s does not exist", batchID)}
	}
	if err != nil {
		return "", domain.Transient("batch driver", err)
	}
	return driverID, nil
}

// SaveRoute stores a produced route and prunes history so only the current
// route and the one it superseded remain per batch.
func (s *PostgresOrderSource) SaveRoute(ctx context.Context, route *domain.OptimizedRoute) error {
	if s.DB == nil {
		return errors.New("order source: DB is nil")
	}

	waypoints, err := json.Marshal(route.Waypoints)
	if err != nil {
		return fmt.Errorf("save route: marshal waypoints: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save route: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := `
	INSERT INTO routes (
		id, batch_id, score,
		total_distance_km, total_duration_seconds, traffic_duration_seconds,
		overall_traffic, waypoints, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = tx.ExecContext(ctx, insert,
		route.ID, route.BatchID, route.Score,
		route.TotalDistanceKm, int(route.TotalDuration.Seconds()), int(route.DurationInTraffic.Seconds()),
		string(route.OverallTraffic), waypoints, route.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save route: insert route %s: %w", route.ID, err)
	}

	prune := `
	DELETE FROM routes
	WHERE batch_id = $1
	  AND id NOT IN (
		SELECT id FROM routes
		WHERE batch_id = $1
		ORDER BY created_at DESC
		LIMIT 2
	  );
	`
	if _, err := tx.ExecContext(ctx, prune, route.BatchID); err != nil {
		return fmt.Errorf("save route: prune superseded routes for batch %s: %w", route.BatchID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save route: commit tx: %w", err)
	}

	return nil
}
