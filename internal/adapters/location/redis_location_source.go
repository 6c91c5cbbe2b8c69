package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"route-optimizer-service/internal/domain"
)

const keyPrefix = "driver:loc:"

type locationRecord struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Redis-backed driver location source. The driver app (or a gateway in
// front of it) pushes location ticks into these keys; the engine only reads
// the latest one.
type RedisLocationSource struct {
	client *redis.Client
}

func NewRedisLocationSource(client *redis.Client) *RedisLocationSource {
	return &RedisLocationSource{client: client}
}

func (s *RedisLocationSource) Current(ctx context.Context, driverID string) (domain.Location, error) {
	val, err := s.client.Get(ctx, keyPrefix+driverID).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Location{}, &domain.DataError{Reason: fmt.Sprintf("no known location for driver %s", driverID)}
	}
	if err != nil {
		return domain.Location{}, domain.Transient("driver location", err)
	}

	var rec locationRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return domain.Location{}, fmt.Errorf("driver location: parse record for %s: %w", driverID, err)
	}
	return domain.Location{Lat: rec.Lat, Lon: rec.Lon}, nil
}

// Update stores a location tick. Used by the ingestion side of the feed and
// by local tooling.
func (s *RedisLocationSource) Update(ctx context.Context, driverID string, loc domain.Location) error {
	data, err := json.Marshal(locationRecord{Lat: loc.Lat, Lon: loc.Lon, RecordedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+driverID, data, 10*time.Minute).Err()
}
