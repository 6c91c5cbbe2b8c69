package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the Postgres schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createBatchesQuery := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL REFERENCES batches(id),
		pickup_lat DOUBLE PRECISION NOT NULL,
		pickup_lon DOUBLE PRECISION NOT NULL,
		delivery_lat DOUBLE PRECISION NOT NULL,
		delivery_lon DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		total_distance_km DOUBLE PRECISION NOT NULL,
		total_duration_seconds INTEGER NOT NULL,
		traffic_duration_seconds INTEGER NOT NULL,
		overall_traffic TEXT NOT NULL,
		waypoints JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_orders_batch_status
	ON orders(batch_id, status);
	`

	createRoutesIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_routes_batch_created
	ON routes(batch_id, created_at DESC);
	`

	statements := []string{
		createBatchesQuery,
		createOrdersQuery,
		createRoutesQuery,
		createIndexQuery,
		createRoutesIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type OrderSeed struct {
	OrderID     string  `json:"order_id"`
	BatchID     string  `json:"batch_id"`
	DriverID    string  `json:"driver_id"`
	PickupLat   float64 `json:"pickup_lat"`
	PickupLon   float64 `json:"pickup_lon"`
	DeliveryLat float64 `json:"delivery_lat"`
	DeliveryLon float64 `json:"delivery_lon"`
}

// Populate the database with batch/order data from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed orders: read %q: %w", jsonPath, err)
	}

	var data []OrderSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed orders: parse json: %w", err)
	}

	for i, item := range data {
		if strings.TrimSpace(item.OrderID) == "" {
			return fmt.Errorf("seed orders: empty order_id at index %d", i+1)
		}
		if strings.TrimSpace(item.BatchID) == "" || strings.TrimSpace(item.DriverID) == "" {
			return fmt.Errorf("seed orders: order %s: batch_id and driver_id are required", item.OrderID)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed orders: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	batchStmt, err := tx.Prepare(`
	INSERT INTO batches (id, driver_id)
	VALUES ($1, $2)
	ON CONFLICT (id) DO NOTHING;
	`)
	if err != nil {
		return fmt.Errorf("seed orders: prepare batch insert: %w", err)
	}
	defer batchStmt.Close()

	orderStmt, err := tx.Prepare(`
	INSERT INTO orders (id, batch_id, pickup_lat, pickup_lon, delivery_lat, delivery_lon)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE
	SET pickup_lat = EXCLUDED.pickup_lat,
		pickup_lon = EXCLUDED.pickup_lon,
		delivery_lat = EXCLUDED.delivery_lat,
		delivery_lon = EXCLUDED.delivery_lon;
	`)
	if err != nil {
		return fmt.Errorf("seed orders: prepare order insert: %w", err)
	}
	defer orderStmt.Close()

	for _, o := range data {
		if _, err := batchStmt.Exec(o.BatchID, o.DriverID); err != nil {
			return fmt.Errorf("seed orders: insert batch %s: %w", o.BatchID, err)
		}
		if _, err := orderStmt.Exec(o.OrderID, o.BatchID, o.PickupLat, o.PickupLon, o.DeliveryLat, o.DeliveryLon); err != nil {
			return fmt.Errorf("seed orders: insert order %s: %w", o.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed orders: commit tx: %w", err)
	}

	return nil
}
