package ports

import (
	"context"
	"route-optimizer-service/internal/domain"
)

// Port: push-based event feed for one batch. The monitor registers a
// subscription and stays decoupled from the transport behind it.
type EventBus interface {
	// Subscribe returns a channel of events for the batch and a cancel
	// function. The channel is closed after cancel (or context end).
	Subscribe(ctx context.Context, batchID string) (<-chan domain.RouteEvent, func(), error)
}

// Port: outbound publication of optimization results to whatever layer
// persists or displays them.
type RoutePublisher interface {
	PublishRoute(ctx context.Context, route *domain.OptimizedRoute) error
	PublishUpdate(ctx context.Context, update *domain.RouteUpdate) error
}
