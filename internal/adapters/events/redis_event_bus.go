package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"route-optimizer-service/internal/domain"
)

const (
	eventChannelPrefix = "routes:events:"
	updatesChannel     = "routes:updates"
)

// Redis pub/sub implementation of the EventBus and RoutePublisher ports.
// Each batch has its own event channel; accepted routes and updates go out
// on a shared channel consumed by the persistence/UI layer and the live
// websocket feed.
type RedisEventBus struct {
	client *redis.Client
}

func NewRedisEventBus(client *redis.Client) *RedisEventBus {
	return &RedisEventBus{client: client}
}

// Subscribe delivers the batch's events on the returned channel until the
// cancel function is called or ctx ends. Malformed payloads are logged and
// dropped rather than killing the subscription.
func (b *RedisEventBus) Subscribe(ctx context.Context, batchID string) (<-chan domain.RouteEvent, func(), error) {
	pubsub := b.client.Subscribe(ctx, eventChannelPrefix+batchID)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("event bus: subscribe batch %s: %w", batchID, err)
	}

	out := make(chan domain.RouteEvent)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var ev domain.RouteEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("event bus batch=%s severity=warn msg=\"dropping malformed event\" err=%v", batchID, err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return out, cancel, nil
}

// PublishEvent puts an event on the batch's channel. Used by ingestion
// gateways and tests.
func (b *RedisEventBus) PublishEvent(ctx context.Context, ev domain.RouteEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("event bus: marshal event %s: %w", ev.Type, err)
	}
	if err := b.client.Publish(ctx, eventChannelPrefix+ev.BatchID, data).Err(); err != nil {
		return domain.Transient("publish event", err)
	}
	return nil
}

type routeEnvelope struct {
	Kind   string `json:"kind"`
	Route  any    `json:"route,omitempty"`
	Update any    `json:"update,omitempty"`
}

func (b *RedisEventBus) PublishRoute(ctx context.Context, route *domain.OptimizedRoute) error {
	return b.publish(ctx, routeEnvelope{Kind: "route", Route: route})
}

func (b *RedisEventBus) PublishUpdate(ctx context.Context, update *domain.RouteUpdate) error {
	return b.publish(ctx, routeEnvelope{Kind: "update", Update: update})
}

func (b *RedisEventBus) publish(ctx context.Context, env routeEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("event bus: marshal %s envelope: %w", env.Kind, err)
	}
	if err := b.client.Publish(ctx, updatesChannel, data).Err(); err != nil {
		return domain.Transient("publish "+env.Kind, err)
	}
	return nil
}

// SubscribeUpdates feeds the raw JSON envelopes published on the shared
// updates channel. Used by the live websocket endpoint.
func (b *RedisEventBus) SubscribeUpdates(ctx context.Context) (<-chan string, func(), error) {
	pubsub := b.client.Subscribe(ctx, updatesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("event bus: subscribe updates: %w", err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { _ = pubsub.Close() }, nil
}
