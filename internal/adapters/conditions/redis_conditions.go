package conditions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"route-optimizer-service/internal/domain"
)

const (
	trafficKeyPrefix = "conditions:traffic:"
	prepKeyPrefix    = "conditions:prep:"
	defaultTTL       = 5 * time.Minute
)

type prepRecord struct {
	EstimatedReady time.Time `json:"estimated_ready"`
	Confidence     float64   `json:"confidence"`
}

// Redis-backed snapshot cache of externally refreshed traffic conditions and
// preparation predictions. The provider side refreshes keys on its own
// cadence; the optimizer reads a consistent snapshot per run.
type RedisConditionCache struct {
	client *redis.Client
}

func NewRedisConditionCache(client *redis.Client) *RedisConditionCache {
	return &RedisConditionCache{client: client}
}

// Traffic returns the current severity per order. Orders without a cached
// reading map to TrafficUnknown.
func (c *RedisConditionCache) Traffic(ctx context.Context, orderIDs []string) (map[string]domain.TrafficCondition, error) {
	out := make(map[string]domain.TrafficCondition, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		keys[i] = trafficKeyPrefix + id
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, domain.Transient("traffic conditions", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			out[orderIDs[i]] = domain.TrafficUnknown
			continue
		}
		out[orderIDs[i]] = domain.TrafficCondition(s)
	}
	return out, nil
}

// Windows returns the cached preparation prediction per order; orders
// without one are absent from the map.
func (c *RedisConditionCache) Windows(ctx context.Context, orderIDs []string) (map[string]domain.PreparationWindow, error) {
	out := make(map[string]domain.PreparationWindow, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		keys[i] = prepKeyPrefix + id
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, domain.Transient("preparation windows", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec prepRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			continue
		}
		out[orderIDs[i]] = domain.PreparationWindow{
			OrderID:        orderIDs[i],
			EstimatedReady: rec.EstimatedReady,
			Confidence:     rec.Confidence,
		}
	}
	return out, nil
}

// SetTraffic stores a severity reading for an order. Used by the ingestion
// side of the condition feed.
func (c *RedisConditionCache) SetTraffic(ctx context.Context, orderID string, cond domain.TrafficCondition) error {
	return c.client.Set(ctx, trafficKeyPrefix+orderID, string(cond), defaultTTL).Err()
}

// SetWindow stores a preparation prediction for an order.
func (c *RedisConditionCache) SetWindow(ctx context.Context, w domain.PreparationWindow) error {
	if w.OrderID == "" {
		return errors.New("set preparation window: order id is required")
	}
	data, err := json.Marshal(prepRecord{EstimatedReady: w.EstimatedReady, Confidence: w.Confidence})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, prepKeyPrefix+w.OrderID, data, defaultTTL).Err()
}
