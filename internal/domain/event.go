package domain

import "time"

// Typed signal consumed by the adjustment monitor. Transient; this engine
// does not persist events.
type RouteEventType string

const (
	EventOrderAdded         RouteEventType = "order_added"
	EventOrderRemoved       RouteEventType = "order_removed"
	EventOrderStatusChanged RouteEventType = "order_status_changed"
	EventDriverLocation     RouteEventType = "driver_location"
	EventRouteDeviation     RouteEventType = "route_deviation"
	EventTrafficIncident    RouteEventType = "traffic_incident"
	EventWeatherAlert       RouteEventType = "weather_alert"
	EventPreparationDelay   RouteEventType = "preparation_delay"
	EventOrderReadyEarly    RouteEventType = "order_ready_early"
)

type RouteEvent struct {
	ID         string         `json:"id"`
	Type       RouteEventType `json:"type"`
	BatchID    string         `json:"batch_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// PayloadFloat reads a numeric payload field, tolerating the float64/int
// ambiguity left by JSON decoding.
func (e RouteEvent) PayloadFloat(key string) (float64, bool) {
	v, ok := e.Payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// PayloadString reads a string payload field.
func (e RouteEvent) PayloadString(key string) (string, bool) {
	s, ok := e.Payload[key].(string)
	return s, ok
}
